package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

// ctaSeparator joins two different call-to-action strategies.
const ctaSeparator = " | "

// keySeparator joins projected fields into one dedupe key.
const keySeparator = "\x1f"

// ConsensusMerger reconciles two records of the same schema.
//
// Lists are concatenated A then B and deduplicated by first occurrence, so
// the set of surviving items does not depend on argument order. Scalars
// prefer A, so Merge(a, b) and Merge(b, a) can differ. Two non-empty
// call-to-action strategies are joined with " | " unless they are
// identical, in which case one copy is kept; this keeps Merge(r, r) == r.
type ConsensusMerger struct{}

// NewConsensusMerger creates a merger.
func NewConsensusMerger() *ConsensusMerger {
	return &ConsensusMerger{}
}

// Merge returns a new record combining a and b. The inputs are not modified.
func (m *ConsensusMerger) Merge(a, b domain.Record) (domain.Record, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: cannot merge a nil record", domain.ErrInvalidInput)
	}
	if a.Schema() != b.Schema() {
		return nil, fmt.Errorf("%w: %s and %s", domain.ErrSchemaMismatch, a.Schema(), b.Schema())
	}

	switch ra := a.(type) {
	case *domain.ScopeRecord:
		return mergeScopes(ra, b.(*domain.ScopeRecord)), nil
	case *domain.FrameworkRecord:
		return mergeFrameworks(ra, b.(*domain.FrameworkRecord)), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSchema, a.Schema())
	}
}

func mergeScopes(a, b *domain.ScopeRecord) *domain.ScopeRecord {
	return &domain.ScopeRecord{
		ProjectTitle:             preferA(a.ProjectTitle, b.ProjectTitle),
		Objectives:               mergeText(a.Objectives, b.Objectives),
		ScopeIn:                  mergeText(a.ScopeIn, b.ScopeIn),
		ScopeOut:                 mergeText(a.ScopeOut, b.ScopeOut),
		Navigation:               mergeText(a.Navigation, b.Navigation),
		GapAnalysis:              mergeText(a.GapAnalysis, b.GapAnalysis),
		StrategicRecommendations: mergeText(a.StrategicRecommendations, b.StrategicRecommendations),
	}
}

func mergeFrameworks(a, b *domain.FrameworkRecord) *domain.FrameworkRecord {
	return &domain.FrameworkRecord{
		HeaderNav: dedupe(a.HeaderNav, b.HeaderNav, func(h domain.HeaderNavItem) string {
			return joinKey(h.MainNav, h.Dropdown, h.FinalDestination)
		}),
		FooterNav: dedupe(a.FooterNav, b.FooterNav, func(f domain.FooterNavItem) string {
			return joinKey(f.MenuTitle, f.NestedItems)
		}),
		WebsiteAssets: dedupe(a.WebsiteAssets, b.WebsiteAssets, func(w domain.WebsiteAsset) string {
			return joinKey(w.AssetRequired, w.Description)
		}),
		CTAStrategy: joinAdvice(a.CTAStrategy, b.CTAStrategy),
	}
}

func mergeText(a, b domain.TextList) domain.TextList {
	return dedupe(a, b, func(s string) string { return s })
}

// dedupe concatenates a and b and keeps the first item for each key.
func dedupe[T any](a, b []T, key func(T) string) []T {
	out := make([]T, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]T{a, b} {
		for _, item := range list {
			k := key(item)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

func joinKey(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

func preferA(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// joinAdvice keeps free text from both records. Identical text is kept
// once so merging a record with itself is a no-op.
func joinAdvice(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "", a == b:
		return a
	default:
		return a + ctaSeparator + b
	}
}
