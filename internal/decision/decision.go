package decision

import "janus/internal/engine"

// Source says which stage of the resolution chain produced a decision.
type Source string

const (
	SourceOverride Source = "override"
	SourceRule     Source = "rule"
	SourceProfile  Source = "profile"
	SourceDefault  Source = "default"
)

// Decision is the decider's verdict for one test. It is an immutable value:
// it carries no engine handles or live state, only the routing outcome and
// enough context to audit it.
type Decision struct {
	Engine      engine.Engine `json:"engine"`
	Confidence  int           `json:"confidence"`
	Reason      string        `json:"reason"`
	MatchedRule string        `json:"matched_rule,omitempty"`
	Fallback    engine.Engine `json:"fallback_engine,omitempty"`
	Source      Source        `json:"source"`
	FromCache   bool          `json:"from_cache"`
}
