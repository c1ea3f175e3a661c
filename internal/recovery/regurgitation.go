package recovery

import (
	"fmt"
	"regexp"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

// DefaultRegurgitationMarkers match structural parts of a JSON Schema or
// YAML schema definition that never occur in a record instance.
var DefaultRegurgitationMarkers = []string{
	`"properties"\s*:`,
	`"definitions"\s*:`,
	`"\$defs"\s*:`,
	`"type"\s*:\s*"object"`,
	`(?m)^\s*type:\s*object\s*$`,
}

// RegurgitationDetector stops the pipeline when the model echoed its schema
// instead of producing data. It only fires on first attempts.
type RegurgitationDetector struct {
	markers []*regexp.Regexp
}

// NewRegurgitationDetector compiles the given marker patterns, or the
// defaults when none are given.
func NewRegurgitationDetector(patterns ...string) (*RegurgitationDetector, error) {
	if len(patterns) == 0 {
		patterns = DefaultRegurgitationMarkers
	}
	markers := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile regurgitation marker %q: %w", p, err)
		}
		markers = append(markers, re)
	}
	return &RegurgitationDetector{markers: markers}, nil
}

// Name returns the strategy name.
func (d *RegurgitationDetector) Name() string { return "regurgitation" }

// Apply checks the text for schema markers.
func (d *RegurgitationDetector) Apply(in driven.RecoveryInput) driven.RecoveryResult {
	if in.DetectRegurgitation {
		for _, re := range d.markers {
			if re.MatchString(in.Text) {
				return driven.RecoveryResult{
					Status: driven.RecoveryRegurgitated,
					Text:   in.Text,
					Err: &domain.MalformedOutputError{
						Reason:  "schema regurgitation",
						Snippet: snippet(in.Text),
					},
				}
			}
		}
	}
	return driven.RecoveryResult{Status: driven.RecoveryContinue, Text: in.Text}
}

// snippet returns the leading part of s for error reports.
func snippet(s string) string {
	const maxSnippet = 120
	runes := []rune(s)
	if len(runes) <= maxSnippet {
		return s
	}
	return string(runes[:maxSnippet]) + "..."
}
