package utils

// Token estimates for prompt budgeting. One token is taken as roughly four
// characters, which is close enough for sizing the dataset context.

const charsPerToken = 4

// CountTokens estimates the number of tokens in text. Non-empty text is at
// least one token.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / charsPerToken
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to about limit tokens. When it cuts, it backs
// up to the last newline so a context block does not end mid-row.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * charsPerToken
	if charLimit >= len(runes) {
		return text
	}
	cut := runes[:charLimit]
	for i := len(cut) - 1; i > charLimit/2; i-- {
		if cut[i] == '\n' {
			return string(cut[:i])
		}
	}
	return string(cut)
}

// TokenBreakdown maps labelled prompt sections to their token estimates.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
