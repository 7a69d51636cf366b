package ai

import (
	"errors"
	"fmt"
	"time"
)

// AuthError indicates authentication/authorization failures (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.APIError.Error())
}

// RateLimitError indicates 429 responses and may include a Retry-After.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: wait about %ds before retrying: %s", int(e.RetryAfter.Seconds()), e.APIError.Error())
	}
	return fmt.Sprintf("rate limited: %s", e.APIError.Error())
}

// PaymentRequiredError indicates exhausted credits or quota (402).
type PaymentRequiredError struct{ *APIError }

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("payment required, add credits: %s", e.APIError.Error())
}

// ModelNotFoundError indicates the requested model is not available.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

// BadRequestError indicates a 400 validation problem.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// ServerError indicates 5xx errors from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("provider error: %s", e.APIError.Error()) }

// UnreachableError indicates the endpoint could not be reached at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// UserMessage returns a short notification text for a transport error.
func UserMessage(err error) string {
	var (
		rl   *RateLimitError
		pay  *PaymentRequiredError
		auth *AuthError
		mnf  *ModelNotFoundError
		unr  *UnreachableError
		srv  *ServerError
		api  *APIError
	)
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "No API key configured. Run `datanav config set api_key <key>`."
	case errors.As(err, &rl):
		return "Rate limit exceeded. Please try again later."
	case errors.As(err, &pay):
		return "Payment required. Please add credits."
	case errors.As(err, &auth):
		return "Authentication failed. Check your API key."
	case errors.As(err, &mnf):
		return "The configured model is not available."
	case errors.As(err, &unr):
		return "The assistant service is unreachable."
	case errors.As(err, &srv), errors.As(err, &api):
		return "AI service error."
	}
	return err.Error()
}
