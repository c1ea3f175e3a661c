package domain

import (
	"fmt"
	"math"
	"strings"
)

// QualityStatus is the outcome of a record quality check.
type QualityStatus string

// Available quality statuses.
const (
	QualityPass    QualityStatus = "PASS"
	QualityWarning QualityStatus = "WARNING"
)

// QualityReport describes how complete a generated record looks.
type QualityReport struct {
	Status QualityStatus `json:"status"`

	// Issues lists the problems found, empty when none.
	Issues []string `json:"issues"`

	// Coverage is the share of glossary terms found, rounded to two decimals.
	Coverage float64 `json:"coverage"`
}

// Thresholds used by the quality checks.
const (
	minTitleLength      = 5
	minObjectives       = 3
	minCTALength        = 10
	minScopeCoverage    = 0.3
	coverageRoundFactor = 100
)

// projectTerms is the project-management vocabulary a scope should use.
var projectTerms = []string{
	"objective", "scope", "deliverable", "milestone", "stakeholder", "risk",
	"kpi", "timeline", "resource", "constraint", "assumption", "gap analysis",
	"sitemap", "navigation", "cta", "call to action",
}

// pageTerms is the page vocabulary a framework's main navigation should use.
var pageTerms = []string{
	"home", "products", "services", "dashboard", "contact", "about", "pricing",
	"login", "signup", "mens", "womens", "faq", "shipping",
}

// AssessScope checks a scope record for completeness.
// It passes when no issues are found and terminology coverage exceeds 0.3.
func AssessScope(r *ScopeRecord) QualityReport {
	issues := []string{}
	if len(strings.TrimSpace(r.ProjectTitle)) < minTitleLength {
		issues = append(issues, "project title is missing or too short")
	}
	if len(r.Objectives) < minObjectives {
		issues = append(issues, fmt.Sprintf("expected at least %d objectives, got %d", minObjectives, len(r.Objectives)))
	}
	if len(r.ScopeIn) == 0 {
		issues = append(issues, "scope_in is empty")
	}
	if len(r.ScopeOut) == 0 {
		issues = append(issues, "scope_out is empty")
	}
	if len(r.GapAnalysis) == 0 {
		issues = append(issues, "gap_analysis is empty")
	}

	text := strings.ToLower(scopeText(r))
	coverage := termCoverage(text, projectTerms)

	status := QualityWarning
	if len(issues) == 0 && coverage > minScopeCoverage {
		status = QualityPass
	}
	return QualityReport{Status: status, Issues: issues, Coverage: coverage}
}

// AssessFramework checks a framework record for completeness.
func AssessFramework(r *FrameworkRecord) QualityReport {
	issues := []string{}
	if len(r.HeaderNav) == 0 {
		issues = append(issues, "header_nav is empty")
	}
	if len(r.FooterNav) == 0 {
		issues = append(issues, "footer_nav is empty")
	}
	if len(r.WebsiteAssets) == 0 {
		issues = append(issues, "website_assets is empty")
	}
	if len(strings.TrimSpace(r.CTAStrategy)) < minCTALength {
		issues = append(issues, "cta_strategy is missing or too short")
	}

	navs := make([]string, 0, len(r.HeaderNav))
	for _, item := range r.HeaderNav {
		navs = append(navs, strings.ToLower(item.MainNav))
	}
	coverage := termCoverage(strings.Join(navs, " "), pageTerms)

	status := QualityWarning
	if len(issues) == 0 {
		status = QualityPass
	}
	return QualityReport{Status: status, Issues: issues, Coverage: coverage}
}

// AssessRecord dispatches to the schema's quality check.
func AssessRecord(rec Record) (QualityReport, error) {
	switch r := rec.(type) {
	case *ScopeRecord:
		return AssessScope(r), nil
	case *FrameworkRecord:
		return AssessFramework(r), nil
	default:
		return QualityReport{}, fmt.Errorf("%w: %T", ErrUnknownSchema, rec)
	}
}

func scopeText(r *ScopeRecord) string {
	var b strings.Builder
	b.WriteString(r.ProjectTitle)
	for _, list := range []TextList{r.Objectives, r.ScopeIn, r.ScopeOut, r.Navigation, r.GapAnalysis, r.StrategicRecommendations} {
		for _, item := range list {
			b.WriteByte(' ')
			b.WriteString(item)
		}
	}
	return b.String()
}

// termCoverage returns the share of terms appearing in lowercase text.
func termCoverage(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	found := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			found++
		}
	}
	ratio := float64(found) / float64(len(terms))
	return math.Round(ratio*coverageRoundFactor) / coverageRoundFactor
}
