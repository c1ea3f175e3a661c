package recovery

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

// StrictParser decodes the text as a record of the target schema.
type StrictParser struct{}

// Name returns the strategy name.
func (StrictParser) Name() string { return "strict" }

// Apply parses the text.
func (StrictParser) Apply(in driven.RecoveryInput) driven.RecoveryResult {
	return decode(in.Schema, in.Text)
}

func decode(schema domain.Schema, text string) driven.RecoveryResult {
	rec, err := domain.DecodeRecord(schema, []byte(text))
	if err != nil {
		return driven.RecoveryResult{Status: driven.RecoveryFailed, Err: err}
	}
	return driven.RecoveryResult{Status: driven.RecoveryDone, Record: rec}
}

// balancedObject matches a brace-delimited substring with at most one
// level of nested braces.
var balancedObject = regexp.MustCompile(`\{(?:[^{}]|\{[^{}]*\})*\}`)

// RegexSalvager tries every balanced brace-delimited substring, longest
// first, until one parses. Equal lengths keep their order of appearance.
type RegexSalvager struct {
	maxCandidates int
}

// SalvageOption configures the regex salvager.
type SalvageOption func(*RegexSalvager)

// WithMaxCandidates limits how many candidates are tried. Zero means no limit.
func WithMaxCandidates(n int) SalvageOption {
	return func(s *RegexSalvager) {
		if n >= 0 {
			s.maxCandidates = n
		}
	}
}

// NewRegexSalvager creates a regex salvager with the given options.
func NewRegexSalvager(opts ...SalvageOption) *RegexSalvager {
	s := &RegexSalvager{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the strategy name.
func (s *RegexSalvager) Name() string { return "regex_salvage" }

// Apply tries each candidate.
func (s *RegexSalvager) Apply(in driven.RecoveryInput) driven.RecoveryResult {
	candidates := SalvageCandidates(in.Text)
	if len(candidates) == 0 {
		return driven.RecoveryResult{
			Status: driven.RecoveryFailed,
			Err:    &domain.MalformedOutputError{Reason: "no json object", Snippet: snippet(in.Text)},
		}
	}
	if s.maxCandidates > 0 && len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}

	var last driven.RecoveryResult
	for _, c := range candidates {
		last = decode(in.Schema, c)
		if last.Status == driven.RecoveryDone {
			return last
		}
	}
	return last
}

// SalvageCandidates returns the balanced brace-delimited substrings of text
// ordered by length, longest first, ties by first appearance.
func SalvageCandidates(text string) []string {
	candidates := balancedObject.FindAllString(text, -1)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	return candidates
}

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	smartQuotes   = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// GenericJSONSalvager parses the text as schema-agnostic JSON after fixing
// common syntax slips (smart quotes, trailing commas), re-serialises it and
// parses the result strictly.
type GenericJSONSalvager struct{}

// Name returns the strategy name.
func (GenericJSONSalvager) Name() string { return "generic_json" }

// Apply re-serialises and parses the text.
func (GenericJSONSalvager) Apply(in driven.RecoveryInput) driven.RecoveryResult {
	text := smartQuotes.Replace(in.Text)
	text = trailingComma.ReplaceAllString(text, "$1")

	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return driven.RecoveryResult{
			Status: driven.RecoveryFailed,
			Err:    &domain.MalformedOutputError{Reason: "not valid json", Snippet: snippet(in.Text), Err: err},
		}
	}
	normalised, err := json.Marshal(generic)
	if err != nil {
		return driven.RecoveryResult{Status: driven.RecoveryFailed, Err: err}
	}
	return decode(in.Schema, string(normalised))
}
