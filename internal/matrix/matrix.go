// Package matrix loads and validates the declarative decision matrix that
// routes tests between the two automation engines: priority-ordered rules,
// per-module default engines, and per-test overrides.
//
// A Matrix is immutable after Load. Reload is construct-new-and-swap (see
// decision.Engine.Swap), never in-place mutation, so concurrent readers can
// never observe a half-updated rule set.
package matrix

import (
	"fmt"
	"sort"

	"janus/internal/engine"
)

// Rule is one resolved decision-matrix entry. Conditions are conjunctive:
// the rule matches only when every condition matches.
type Rule struct {
	Name       string
	Priority   int
	Conditions []Condition
	Engine     engine.Engine
	Confidence int
	Reason     string
	Fallback   engine.Engine // empty when no fallback is declared

	// seq is the declaration index, the tie-breaker for equal priority.
	seq int
}

// Matrix is the read-only, validated decision matrix.
type Matrix struct {
	rules     []Rule // sorted: priority desc, declaration order on ties
	profiles  map[string]engine.Engine
	overrides map[string]engine.Engine
	def       engine.Engine
}

// RulesByPriority returns the rules in evaluation order: descending
// priority, declaration order on ties. The returned slice is shared and
// must not be modified.
func (m *Matrix) RulesByPriority() []Rule { return m.rules }

// Profile returns the default engine for a logical test module.
func (m *Matrix) Profile(module string) (engine.Engine, bool) {
	e, ok := m.profiles[module]
	return e, ok
}

// Override returns the forced engine for an exact test identifier.
func (m *Matrix) Override(testID string) (engine.Engine, bool) {
	e, ok := m.overrides[testID]
	return e, ok
}

// DefaultEngine is the engine used when nothing in the matrix matched.
func (m *Matrix) DefaultEngine() engine.Engine { return m.def }

// ProfileCount reports how many module profiles the matrix declares.
func (m *Matrix) ProfileCount() int { return len(m.profiles) }

// OverrideCount reports how many per-test overrides the matrix declares.
func (m *Matrix) OverrideCount() int { return len(m.overrides) }

// newMatrix validates and indexes a parsed document.
func newMatrix(doc *document) (*Matrix, error) {
	m := &Matrix{
		profiles:  make(map[string]engine.Engine, len(doc.ModuleProfiles)),
		overrides: make(map[string]engine.Engine, len(doc.Overrides)),
		def:       engine.Modern,
	}

	if doc.DefaultEngine != "" {
		e, err := engine.Parse(doc.DefaultEngine)
		if err != nil {
			return nil, &ConfigError{Section: "default_engine", Err: err}
		}
		m.def = e
	}

	seen := make(map[string]bool, len(doc.Rules))
	m.rules = make([]Rule, 0, len(doc.Rules))
	for i, rd := range doc.Rules {
		if rd.Name == "" {
			return nil, &ConfigError{Section: fmt.Sprintf("rules[%d]", i), Err: fmt.Errorf("missing name")}
		}
		if seen[rd.Name] {
			return nil, &ConfigError{Section: "rules", Err: fmt.Errorf("duplicate rule name %q", rd.Name)}
		}
		seen[rd.Name] = true

		e, err := engine.Parse(rd.Engine)
		if err != nil {
			return nil, &ConfigError{Section: "rule " + rd.Name, Err: err}
		}
		r := Rule{
			Name:       rd.Name,
			Priority:   clamp(rd.Priority),
			Engine:     e,
			Confidence: clamp(rd.Confidence),
			Reason:     rd.Reason,
			seq:        i,
		}
		if rd.FallbackEngine != "" {
			fb, err := engine.Parse(rd.FallbackEngine)
			if err != nil {
				return nil, &ConfigError{Section: "rule " + rd.Name, Err: fmt.Errorf("fallback_engine: %w", err)}
			}
			r.Fallback = fb
		}

		// A rule with no condition fields would match every test and
		// shadow everything below it, including the module profiles.
		if len(rd.Condition) == 0 {
			return nil, &ConfigError{Section: "rule " + rd.Name, Err: fmt.Errorf("no condition fields")}
		}

		// Conditions in stable field order so evaluation and hashing are
		// independent of map iteration.
		for _, field := range sortedKeys(rd.Condition) {
			c, err := parseCondition(field, rd.Condition[field])
			if err != nil {
				return nil, &ConfigError{Section: "rule " + rd.Name, Err: err}
			}
			r.Conditions = append(r.Conditions, c)
		}
		m.rules = append(m.rules, r)
	}

	sort.SliceStable(m.rules, func(i, j int) bool {
		if m.rules[i].Priority != m.rules[j].Priority {
			return m.rules[i].Priority > m.rules[j].Priority
		}
		return m.rules[i].seq < m.rules[j].seq
	})

	for module, name := range doc.ModuleProfiles {
		e, err := engine.Parse(name)
		if err != nil {
			return nil, &ConfigError{Section: "module_profiles." + module, Err: err}
		}
		m.profiles[module] = e
	}
	for testID, name := range doc.Overrides {
		e, err := engine.Parse(name)
		if err != nil {
			return nil, &ConfigError{Section: "overrides." + testID, Err: err}
		}
		m.overrides[testID] = e
	}
	return m, nil
}

// Matches reports whether every condition of the rule holds for the given
// field set. Malformed values (e.g. a non-numeric field under a comparison
// condition) make the rule a non-match, never an error.
func (r Rule) Matches(fields map[string]any) bool {
	for _, c := range r.Conditions {
		v, ok := fields[c.Field]
		if !c.Match(v, ok) {
			return false
		}
	}
	return true
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
