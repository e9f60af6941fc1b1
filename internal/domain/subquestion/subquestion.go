// Package subquestion defines the decomposition units of a multi-part
// question. Sub-questions live for a single request and are never persisted.
package subquestion

import (
	"github.com/inkwell-labs/inkwell/internal/domain/plan"
	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
)

// SubQuestion is one independently resolvable part of a multi-part question.
type SubQuestion struct {
	Text string
	Plan plan.Plan
}

// Outcome is the processed state of one sub-question.
type Outcome struct {
	Question       SubQuestion
	Results        []result.Result
	HasDataInRange bool
	ContextSummary string
	ReasoningNote  string
	Err            error
}

// Failed reports whether processing this sub-question ended in an error
// placeholder rather than a (possibly empty) result set.
func (o *Outcome) Failed() bool { return o.Err != nil }
