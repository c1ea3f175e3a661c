package recovery

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

var (
	headingLine   = regexp.MustCompile(`^\s*#{1,6}\s+\S`)
	ruleLine      = regexp.MustCompile(`^\s*([-*_=]\s*){3,}$`)
	tableSepLine  = regexp.MustCompile(`^\s*\|?(\s*:?-{3,}:?\s*\|)+\s*(:?-{3,}:?)?\s*$`)
	fencedBlock   = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*[ \t]*\r?\n?(.*?)```")
	openFenceLine = regexp.MustCompile("^\\s*```[a-zA-Z0-9_+-]*[ \\t]*\\r?\\n")
	anyBraced     = regexp.MustCompile(`(?s)\{.*\}`)
)

// Precleaner drops decorative lines models emit around data: markdown
// headings, horizontal rules, table separators and emoji-only lines.
type Precleaner struct{}

// Name returns the strategy name.
func (Precleaner) Name() string { return "preclean" }

// Apply removes decorative lines.
func (Precleaner) Apply(in driven.RecoveryInput) driven.RecoveryResult {
	lines := strings.Split(in.Text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isDecorative(line) {
			continue
		}
		kept = append(kept, line)
	}
	return driven.RecoveryResult{Status: driven.RecoveryContinue, Text: strings.TrimSpace(strings.Join(kept, "\n"))}
}

func isDecorative(line string) bool {
	if headingLine.MatchString(line) || ruleLine.MatchString(line) || tableSepLine.MatchString(line) {
		return true
	}
	return isEmojiOnly(line)
}

// isEmojiOnly reports whether line holds at least one pictograph and
// nothing but pictographs, joiners and spaces.
func isEmojiOnly(line string) bool {
	seen := false
	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
		case unicode.Is(unicode.So, r), r >= 0x1F3FB && r <= 0x1F3FF:
			seen = true
		case r == '\u200d', r == '\ufe0f', unicode.Is(unicode.Mn, r):
		default:
			return false
		}
	}
	return seen
}

// FenceUnwrapper keeps only the content of the first fenced code block.
// An opening fence with no closing fence is stripped.
type FenceUnwrapper struct{}

// Name returns the strategy name.
func (FenceUnwrapper) Name() string { return "unwrap_fence" }

// Apply unwraps the first fenced block.
func (FenceUnwrapper) Apply(in driven.RecoveryInput) driven.RecoveryResult {
	return driven.RecoveryResult{Status: driven.RecoveryContinue, Text: unwrapFence(in.Text)}
}

func unwrapFence(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceLine.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[loc[1]:])
	}
	return text
}

// BraceBounder cuts the text to the span between the first '{' and the
// last '}'. Text that starts with the schema's first field is left for
// continuation repair.
type BraceBounder struct{}

// Name returns the strategy name.
func (BraceBounder) Name() string { return "brace_bound" }

// Apply bounds the text by braces.
func (BraceBounder) Apply(in driven.RecoveryInput) driven.RecoveryResult {
	if startsWithField(in.Text, in.Schema.FirstField()) {
		return driven.RecoveryResult{Status: driven.RecoveryContinue, Text: in.Text}
	}
	return driven.RecoveryResult{Status: driven.RecoveryContinue, Text: boundBraces(in.Text)}
}

func boundBraces(text string) string {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	switch {
	case first >= 0 && last > first:
		return text[first : last+1]
	case first >= 0:
		// truncated output: keep from the opening brace
		return text[first:]
	}
	if m := anyBraced.FindString(text); m != "" {
		return m
	}
	return text
}

// ContinuationRepairer restores an opening brace the model elided when the
// text starts directly with the schema's first field.
type ContinuationRepairer struct{}

// Name returns the strategy name.
func (ContinuationRepairer) Name() string { return "continuation" }

// Apply prepends the missing brace.
func (ContinuationRepairer) Apply(in driven.RecoveryInput) driven.RecoveryResult {
	return driven.RecoveryResult{Status: driven.RecoveryContinue, Text: repairContinuation(in.Text, in.Schema.FirstField())}
}

func repairContinuation(text, firstField string) string {
	if !startsWithField(text, firstField) {
		return text
	}
	repaired := "{" + strings.TrimSpace(text)
	if !strings.HasSuffix(repaired, "}") {
		repaired += "}"
	}
	return repaired
}

func startsWithField(text, field string) bool {
	return field != "" && strings.HasPrefix(strings.TrimSpace(text), `"`+field+`"`)
}

// Clean applies the text-cleaning strategies in their default order and
// returns the cleaned text.
func Clean(in driven.RecoveryInput) string {
	text := in.Text
	for _, s := range []driven.RecoveryStrategy{Precleaner{}, FenceUnwrapper{}, BraceBounder{}, ContinuationRepairer{}} {
		text = s.Apply(driven.RecoveryInput{Text: text, Schema: in.Schema}).Text
	}
	return text
}
