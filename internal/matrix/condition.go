package matrix

import (
	"fmt"
	"strconv"
	"strings"
)

// CompareOp is a numeric comparison operator in a rule condition.
type CompareOp string

const (
	OpGE CompareOp = ">="
	OpLE CompareOp = "<="
	OpGT CompareOp = ">"
	OpLT CompareOp = "<"
)

// Condition is one field predicate in a rule, resolved once at load time so
// evaluation never re-parses the document form.
//
// Exactly one of the three variants is populated:
//   - Exact: the metadata value must equal Value
//   - Members: the metadata value must be a member of Members
//   - Op: the metadata value must be numeric and satisfy "Op Threshold"
type Condition struct {
	Field string

	Exact     any
	Members   []any
	Op        CompareOp
	Threshold float64
}

// parseCondition resolves one raw condition entry from the document.
// Lists become membership tests, strings that start with a comparison
// operator become numeric comparisons, everything else is an exact match.
func parseCondition(field string, raw any) (Condition, error) {
	switch v := raw.(type) {
	case []any:
		if len(v) == 0 {
			return Condition{}, fmt.Errorf("condition %q: empty membership list", field)
		}
		return Condition{Field: field, Members: v}, nil
	case string:
		if op, rest, ok := splitCompare(v); ok {
			n, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
			if err != nil {
				return Condition{}, fmt.Errorf("condition %q: comparison %q needs a numeric operand", field, v)
			}
			return Condition{Field: field, Op: op, Threshold: n}, nil
		}
		return Condition{Field: field, Exact: v}, nil
	default:
		return Condition{Field: field, Exact: raw}, nil
	}
}

// splitCompare detects a leading comparison operator. Two-character
// operators are checked first so ">= 3" is not read as "> (= 3)".
func splitCompare(s string) (CompareOp, string, bool) {
	t := strings.TrimSpace(s)
	for _, op := range []CompareOp{OpGE, OpLE, OpGT, OpLT} {
		if strings.HasPrefix(t, string(op)) {
			return op, t[len(op):], true
		}
	}
	return "", "", false
}

// Match tests the condition against one metadata field value.
// present=false, a type the condition cannot use, or a failed predicate all
// count as a non-match; Match never errors.
func (c Condition) Match(value any, present bool) bool {
	if !present {
		return false
	}
	switch {
	case c.Op != "":
		n, ok := asNumber(value)
		return ok && compare(c.Op, n, c.Threshold)
	case c.Members != nil:
		// A list-valued metadata field (markers) matches when any of its
		// elements is in the membership set.
		if list, ok := value.([]any); ok {
			for _, item := range list {
				if containsEqual(c.Members, item) {
					return true
				}
			}
			return false
		}
		if list, ok := value.([]string); ok {
			for _, item := range list {
				if containsEqual(c.Members, item) {
					return true
				}
			}
			return false
		}
		return containsEqual(c.Members, value)
	default:
		if list, ok := value.([]string); ok {
			for _, item := range list {
				if looseEqual(c.Exact, item) {
					return true
				}
			}
			return false
		}
		return looseEqual(c.Exact, value)
	}
}

func containsEqual(members []any, value any) bool {
	for _, m := range members {
		if looseEqual(m, value) {
			return true
		}
	}
	return false
}

// looseEqual compares two scalars across the representations YAML and JSON
// produce (int vs float64) without coercing strings to numbers.
func looseEqual(a, b any) bool {
	if an, ok := asNumber(a); ok {
		bn, ok := asNumber(b)
		return ok && an == bn
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ab == bb
	}
	as, ok := a.(string)
	if !ok {
		return a == b
	}
	bs, ok := b.(string)
	return ok && as == bs
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func compare(op CompareOp, a, b float64) bool {
	switch op {
	case OpGE:
		return a >= b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpLT:
		return a < b
	}
	return false
}
