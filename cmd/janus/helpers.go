package main

import (
	"encoding/json"
	"fmt"
	"os"

	"janus/internal/decision"
	"janus/internal/report"
)

// metadataFlags is the flag surface shared by commands that describe a test
// on the command line. A JSON file can seed the metadata; explicit flags
// override what the file provided.
type metadataFlags struct {
	file                string
	testID              string
	module              string
	framework           string
	authTypes           []string
	iframeDepth         int
	networkInterception bool
	mobileFirst         bool
	markers             []string
}

// metadataDoc mirrors decision.TestMetadata for JSON files on disk.
type metadataDoc struct {
	TestID              string         `json:"test_id"`
	Module              string         `json:"module"`
	Framework           string         `json:"framework"`
	AuthTypes           []string       `json:"auth_type"`
	IframeDepth         int            `json:"iframe_depth"`
	NetworkInterception bool           `json:"network_interception"`
	MobileFirst         bool           `json:"mobile_first"`
	Markers             []string       `json:"markers"`
	Extra               map[string]any `json:"extra"`
}

func (f *metadataFlags) build() (decision.TestMetadata, error) {
	var meta decision.TestMetadata
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return meta, fmt.Errorf("read metadata file: %w", err)
		}
		var doc metadataDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return meta, fmt.Errorf("parse metadata file %s: %w", f.file, err)
		}
		meta = decision.TestMetadata{
			TestID:              doc.TestID,
			Module:              doc.Module,
			Framework:           doc.Framework,
			AuthTypes:           doc.AuthTypes,
			IframeDepth:         doc.IframeDepth,
			NetworkInterception: doc.NetworkInterception,
			MobileFirst:         doc.MobileFirst,
			Markers:             doc.Markers,
			Extra:               doc.Extra,
		}
	}
	if f.testID != "" {
		meta.TestID = f.testID
	}
	if f.module != "" {
		meta.Module = f.module
	}
	if f.framework != "" {
		meta.Framework = f.framework
	}
	if len(f.authTypes) > 0 {
		meta.AuthTypes = f.authTypes
	}
	if f.iframeDepth > 0 {
		meta.IframeDepth = f.iframeDepth
	}
	if f.networkInterception {
		meta.NetworkInterception = true
	}
	if f.mobileFirst {
		meta.MobileFirst = true
	}
	if len(f.markers) > 0 {
		meta.Markers = f.markers
	}
	if meta.TestID == "" {
		return meta, fmt.Errorf("test metadata needs a test id (--test-id or metadata file)")
	}
	return meta, nil
}

func reportMode(format string) (report.Mode, error) {
	switch format {
	case "table", "":
		return report.ASCII, nil
	case "markdown", "md":
		return report.Markdown, nil
	default:
		return report.ASCII, fmt.Errorf("unknown output format %q (want table or markdown)", format)
	}
}
