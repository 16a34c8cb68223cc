package bridge

import (
	"encoding/json"
	"time"

	"janus/internal/engine"
)

// StorageKind distinguishes the two web storage scopes.
type StorageKind string

const (
	StorageLocal   StorageKind = "local"
	StorageSession StorageKind = "session"
)

// SessionState is the transferable snapshot of an authenticated session:
// cookies plus token-bearing storage entries. It holds no reference to the
// context it was extracted from and no engine-specific fields, so it can be
// logged, persisted, or replayed against either engine.
type SessionState struct {
	Cookies    []engine.Cookie                   `json:"cookies"`
	Tokens     map[StorageKind]map[string]string `json:"tokens"`
	CapturedAt time.Time                         `json:"captured_at"`
}

// Empty reports whether the snapshot carries nothing transferable.
func (s *SessionState) Empty() bool {
	if s == nil {
		return true
	}
	if len(s.Cookies) > 0 {
		return false
	}
	for _, entries := range s.Tokens {
		if len(entries) > 0 {
			return false
		}
	}
	return true
}

// ExportJSON renders the snapshot for diagnostics and audit logs.
func (s *SessionState) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
