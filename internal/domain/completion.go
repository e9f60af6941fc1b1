package domain

import "context"

// ChatTurn is one prior exchange message passed as conversation context.
type ChatTurn struct {
	Role    string // "user" or "assistant"
	Content string
}

// CompletionRequest carries everything the answer generator needs.
type CompletionRequest struct {
	System  string
	History []ChatTurn
	Prompt  string
}

// CompletionResult is the generated answer plus token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Completer generates natural-language answers from retrieved context.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}
