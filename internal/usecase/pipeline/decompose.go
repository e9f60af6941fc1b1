package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/domain"
	"github.com/inkwell-labs/inkwell/internal/usecase/planner"
)

const decomposeSystemPrompt = "Split the user's message into independent, " +
	"self-contained questions. Output one question per line with no numbering " +
	"or commentary. If the message is a single question, output it unchanged."

// decomposeBackoff holds the waits between classification retries. This is
// the only retrying component in the pipeline.
var decomposeBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// LLMDecomposer splits multi-part questions with the completion provider,
// falling back to deterministic splitting when the provider stays down.
type LLMDecomposer struct {
	complete domain.Completer
	sleep    func(time.Duration)
	logger   *zap.Logger
}

// NewLLMDecomposer creates a decomposer backed by the completion provider.
func NewLLMDecomposer(complete domain.Completer, logger *zap.Logger) *LLMDecomposer {
	return &LLMDecomposer{complete: complete, sleep: time.Sleep, logger: logger}
}

// Decompose returns the sub-questions of message. The provider call is
// retried with exponential backoff; after the last attempt the heuristic
// splitter takes over, so decomposition never fails outright.
func (d *LLMDecomposer) Decompose(ctx context.Context, message string) []string {
	for attempt := 0; ; attempt++ {
		subs, err := d.tryOnce(ctx, message)
		if err == nil && len(subs) > 0 {
			return subs
		}
		if attempt >= len(decomposeBackoff) || ctx.Err() != nil {
			d.logger.Warn("LLM decomposition exhausted, using heuristic split",
				zap.Int("attempts", attempt+1), zap.Error(err))
			return planner.Split(message)
		}

		d.logger.Debug("Decomposition attempt failed, backing off",
			zap.Int("attempt", attempt+1), zap.Error(err))
		d.sleep(decomposeBackoff[attempt])
	}
}

func (d *LLMDecomposer) tryOnce(ctx context.Context, message string) ([]string, error) {
	resp, err := d.complete.Complete(ctx, domain.CompletionRequest{
		System: decomposeSystemPrompt,
		Prompt: message,
	})
	if err != nil {
		return nil, err
	}

	var subs []string
	for _, line := range strings.Split(resp.Text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			subs = append(subs, line)
		}
	}
	return subs, nil
}
