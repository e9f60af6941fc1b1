package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/domain"
)

// History bounds. Older turns add latency and token cost without improving
// answers, so only the tail of the conversation is forwarded.
const (
	defaultMaxHistoryTurns = 6
	defaultMessageCap      = 500
)

// Completer generates answers via the OpenAI-compatible chat completions API.
type Completer struct {
	client          *openai.Client
	model           string
	maxHistoryTurns int
	messageCap      int
	logger          *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxHistoryTurns int
	MessageCapChars int
	Logger          *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	maxTurns := cfg.MaxHistoryTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxHistoryTurns
	}
	msgCap := cfg.MessageCapChars
	if msgCap <= 0 {
		msgCap = defaultMessageCap
	}

	return &Completer{
		client:          openai.NewClientWithConfig(clientCfg),
		model:           cfg.Model,
		maxHistoryTurns: maxTurns,
		messageCap:      msgCap,
		logger:          cfg.Logger,
	}
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, turn := range trimHistory(req.History, c.maxHistoryTurns) {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: capMessage(turn.Content, c.messageCap),
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return domain.CompletionResult{}, parseCompletionError(err)
	}
	if len(resp.Choices) == 0 {
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProvider)
	}

	return domain.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// trimHistory keeps only the last n turns.
func trimHistory(history []domain.ChatTurn, n int) []domain.ChatTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// capMessage bounds one history message so a single long turn cannot blow
// the prompt budget.
func capMessage(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// parseCompletionError wraps errors with domain.ErrCompletionProvider.
func parseCompletionError(err error) error {
	wrap := domain.ErrCompletionProvider

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}
