// Package subquestion resolves the parts of a decomposed multi-part question.
// Batches run sequentially with all sub-questions inside a batch in flight at
// once, which bounds peak pressure on the embedding and search backends while
// still overlapping I/O.
package subquestion

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	domsub "github.com/inkwell-labs/inkwell/internal/domain/subquestion"
	"github.com/inkwell-labs/inkwell/internal/metrics"
)

const defaultBatchSize = 3

// Processor fans sub-questions out over a bounded worker pool.
type Processor struct {
	embed     Embedder
	search    Searcher
	counter   RangeCounter
	pool      *ants.Pool
	batchSize int
	logger    *zap.Logger
}

// New creates a processor. The pool size equals the batch size so a batch
// is exactly one full occupancy of the pool.
func New(embed Embedder, search Searcher, counter RangeCounter, batchSize int, logger *zap.Logger) (*Processor, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	pool, err := ants.NewPool(batchSize)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Processor{
		embed:     embed,
		search:    search,
		counter:   counter,
		pool:      pool,
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// Close releases the worker pool.
func (p *Processor) Close() {
	p.pool.Release()
}

// ProcessAll resolves every sub-question and returns outcomes in input
// order. Batches execute strictly one after another; a failure in one
// sub-question is captured in its own outcome and never aborts the batch.
func (p *Processor) ProcessAll(
	ctx context.Context, userID string, subs []domsub.SubQuestion,
	dateFilter *plan.TimeRange, strictDates bool,
) []domsub.Outcome {
	outcomes := make([]domsub.Outcome, len(subs))

	for start := 0; start < len(subs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(subs) {
			end = len(subs)
		}
		metrics.SubQuestionBatchesTotal.Inc()

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			i := i
			wg.Add(1)
			task := func() {
				defer wg.Done()
				outcomes[i] = p.processOne(ctx, userID, subs[i], dateFilter, strictDates)
			}
			if err := p.pool.Submit(task); err != nil {
				// Pool is released or overloaded; run inline rather than drop.
				task()
			}
		}
		wg.Wait()
	}

	return outcomes
}

// processOne resolves a single sub-question. Panics and errors stay inside
// the returned outcome.
func (p *Processor) processOne(
	ctx context.Context, userID string, sub domsub.SubQuestion,
	dateFilter *plan.TimeRange, strictDates bool,
) (outcome domsub.Outcome) {
	outcome = domsub.Outcome{Question: sub, HasDataInRange: true}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Sub-question processing panicked",
				zap.String("question", sub.Text), zap.Any("panic", r))
			outcome.Err = fmt.Errorf("sub-question panic: %v", r)
			outcome.Results = nil
		}
	}()

	timeRange := sub.Plan.TimeRange()
	if timeRange == nil {
		timeRange = dateFilter
	}

	// Cost-saving fast path: skip retrieval entirely when the window is empty.
	if strictDates && timeRange != nil {
		n, err := p.counter.CountInRange(ctx, userID, timeRange)
		if err != nil {
			p.logger.Warn("Range existence check failed, proceeding with search",
				zap.String("question", sub.Text), zap.Error(err))
		} else if n == 0 {
			outcome.HasDataInRange = false
			outcome.ReasoningNote = "no entries in the requested date range"
			return outcome
		}
	}

	var vec []float32
	embResult, err := p.embed.Embed(ctx, sub.Text)
	if err != nil {
		// Structured search can still answer; note the degradation.
		p.logger.Warn("Sub-question embedding failed, structured-only retrieval",
			zap.String("question", sub.Text), zap.Error(err))
		outcome.ReasoningNote = "semantic search unavailable, structured results only"
	} else {
		vec = embResult.Embedding
	}

	searchOutcome := p.search.Execute(ctx, userID, vec, sub.Plan, sub.Text)
	outcome.Results = searchOutcome.Combined
	outcome.ContextSummary = Summarize(sub, searchOutcome.Combined)
	return outcome
}
