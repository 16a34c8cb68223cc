package matrix

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigError reports a malformed or semantically invalid decision matrix.
// It is fatal at load time; the loader never degrades a bad document into a
// partial matrix.
type ConfigError struct {
	Section string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("decision matrix: %v", e.Err)
	}
	return fmt.Sprintf("decision matrix: %s: %v", e.Section, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// document is the wire form of the decision matrix.
type document struct {
	DefaultEngine  string            `json:"default_engine" yaml:"default_engine"`
	Rules          []ruleDoc         `json:"rules" yaml:"rules"`
	ModuleProfiles map[string]string `json:"module_profiles" yaml:"module_profiles"`
	Overrides      map[string]string `json:"overrides" yaml:"overrides"`
}

type ruleDoc struct {
	Name           string         `json:"name" yaml:"name"`
	Priority       int            `json:"priority" yaml:"priority"`
	Condition      map[string]any `json:"condition" yaml:"condition"`
	Engine         string         `json:"engine" yaml:"engine"`
	Confidence     int            `json:"confidence" yaml:"confidence"`
	Reason         string         `json:"reason" yaml:"reason"`
	FallbackEngine string         `json:"fallback_engine" yaml:"fallback_engine"`
}

// LoadFromPath reads a matrix file (YAML or JSON) and returns the validated
// Matrix. Format is detected by extension, or by content when the extension
// is unknown.
func LoadFromPath(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("read matrix: %w", err)}
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a matrix document from bytes. ext is the file extension
// (".yaml", ".yml", ".json") as a format hint; empty = detect from content.
func Load(data []byte, ext string) (*Matrix, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}

	var doc document
	switch {
	case ext == ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("parse matrix json: %w", err)}
		}
	case ext == ".yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("parse matrix yaml: %w", err)}
		}
	case strings.HasPrefix(strings.TrimSpace(string(data)), "{"):
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("parse matrix json: %w", err)}
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("parse matrix yaml: %w", err)}
		}
	}
	return newMatrix(&doc)
}
