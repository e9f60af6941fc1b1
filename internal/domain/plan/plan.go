// Package plan defines the immutable query plan produced by the planner
// and consumed by every downstream retrieval component.
package plan

import "time"

// Complexity is the coarse query classification tier.
type Complexity string

// Complexity tiers.
const (
	Simple    Complexity = "simple"
	Complex   Complexity = "complex"
	MultiPart Complexity = "multi_part"
)

// IsValid checks if the complexity is one of the supported tiers.
func (c Complexity) IsValid() bool {
	return c == Simple || c == Complex || c == MultiPart
}

// ExecutionMode controls how the two search backends are scheduled.
type ExecutionMode string

// Execution modes.
const (
	Parallel   ExecutionMode = "parallel"
	Sequential ExecutionMode = "sequential"
)

// ResponseType is the expected shape of the final answer.
type ResponseType string

// Response types.
const (
	Direct     ResponseType = "direct"
	Analysis   ResponseType = "analysis"
	Aggregated ResponseType = "aggregated"
	Narrative  ResponseType = "narrative"
)

// TimeRange bounds retrieval to entries created within [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Plan is the immutable output of query planning. Created once per request,
// never mutated afterwards.
type Plan struct {
	strategy           string
	complexity         Complexity
	mode               ExecutionMode
	responseType       ResponseType
	requiresTimeFilter bool
	requiresAggregate  bool
	timeRange          *TimeRange
	themes             []string
	entities           []string
	emotions           []string
}

// New creates a plan. Filter slices are copied so the plan stays immutable
// even if the caller reuses its buffers.
func New(
	strategy string, complexity Complexity, mode ExecutionMode, responseType ResponseType,
	requiresTimeFilter, requiresAggregate bool,
	timeRange *TimeRange, themes, entities, emotions []string,
) Plan {
	var tr *TimeRange
	if timeRange != nil {
		cp := *timeRange
		tr = &cp
	}
	return Plan{
		strategy:           strategy,
		complexity:         complexity,
		mode:               mode,
		responseType:       responseType,
		requiresTimeFilter: requiresTimeFilter,
		requiresAggregate:  requiresAggregate,
		timeRange:          tr,
		themes:             copyStrings(themes),
		entities:           copyStrings(entities),
		emotions:           copyStrings(emotions),
	}
}

// Strategy returns the planner rule tag that produced this plan.
func (p *Plan) Strategy() string { return p.strategy }

// Complexity returns the classification tier.
func (p *Plan) Complexity() Complexity { return p.complexity }

// Mode returns the backend scheduling mode.
func (p *Plan) Mode() ExecutionMode { return p.mode }

// ResponseType returns the expected answer shape.
func (p *Plan) ResponseType() ResponseType { return p.responseType }

// RequiresTimeFilter reports whether retrieval must be date-bounded.
func (p *Plan) RequiresTimeFilter() bool { return p.requiresTimeFilter }

// RequiresAggregation reports whether the question asks for frequency,
// ranking or statistics.
func (p *Plan) RequiresAggregation() bool { return p.requiresAggregate }

// TimeRange returns a copy of the date bound, or nil.
func (p *Plan) TimeRange() *TimeRange {
	if p.timeRange == nil {
		return nil
	}
	cp := *p.timeRange
	return &cp
}

// Themes returns the theme filter set.
func (p *Plan) Themes() []string { return copyStrings(p.themes) }

// Entities returns the entity filter set.
func (p *Plan) Entities() []string { return copyStrings(p.entities) }

// Emotions returns the emotion filter set.
func (p *Plan) Emotions() []string { return copyStrings(p.emotions) }

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
