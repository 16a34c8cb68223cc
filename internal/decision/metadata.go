package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// TestMetadata is the caller-supplied description of one test. It is a
// value type: the decider never mutates it, and two metadata records with
// the same semantic content produce the same cache Key regardless of the
// order slices were appended in.
type TestMetadata struct {
	TestID              string
	Module              string
	Framework           string
	AuthTypes           []string
	IframeDepth         int
	NetworkInterception bool
	MobileFirst         bool
	Markers             []string

	// Extra carries fields the core does not model. Rules may reference
	// them by key; unrecognized keys are simply ignored.
	Extra map[string]any
}

// Fields flattens the metadata into the flat key/value view rule conditions
// are evaluated against. Well-known keys shadow Extra entries of the same
// name.
func (m TestMetadata) Fields() map[string]any {
	fields := make(map[string]any, 8+len(m.Extra))
	for k, v := range m.Extra {
		fields[k] = v
	}
	fields["test_id"] = m.TestID
	fields["module"] = m.Module
	fields["framework"] = m.Framework
	fields["auth_type"] = append([]string(nil), m.AuthTypes...)
	fields["iframe_depth"] = m.IframeDepth
	fields["network_interception"] = m.NetworkInterception
	fields["mobile_first"] = m.MobileFirst
	fields["markers"] = append([]string(nil), m.Markers...)
	return fields
}

// Key is the canonical cache key: a hash over all fields in stable order,
// with set-valued fields sorted first so construction order cannot change
// the key.
func (m TestMetadata) Key() string {
	fields := m.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(canonicalValue(fields[k]))
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func canonicalValue(v any) string {
	switch t := v.(type) {
	case []string:
		s := append([]string(nil), t...)
		sort.Strings(s)
		return strings.Join(s, ",")
	case []any:
		s := make([]string, len(t))
		for i, item := range t {
			s[i] = fmt.Sprint(item)
		}
		sort.Strings(s)
		return strings.Join(s, ",")
	default:
		return fmt.Sprint(v)
	}
}
