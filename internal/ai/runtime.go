package ai

import "context"

// Streamer is the assistant transport consumed by a conversation.
// Implementations call onDelta with each content fragment, in order.
type Streamer interface {
	StreamChat(ctx context.Context, req ChatRequest, onDelta func(string)) error
}

var _ Streamer = (*Client)(nil)
