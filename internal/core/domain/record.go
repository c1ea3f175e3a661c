package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Record is a structured document produced from model output.
// Records are immutable once returned to a caller; combining two records
// produces a new one.
type Record interface {
	// Schema returns the record's schema.
	Schema() Schema

	// normalise replaces nil lists with empty ones so encoded records
	// always carry every field.
	normalise()
}

// TextList is a list-of-string record field. Decoding accepts nested lists
// and scalar values, flattening each element to a single string.
type TextList []string

// UnmarshalJSON decodes a JSON array, treating null as an empty list.
func (l *TextList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = TextList{}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected a list of strings: %w", err)
	}

	out := make(TextList, 0, len(items))
	for _, item := range items {
		text, err := flattenText(item)
		if err != nil {
			return err
		}
		out = append(out, text)
	}
	*l = out
	return nil
}

// flattenText turns one list element into its string key. Nested lists
// are joined with "; " so equal nested values yield equal keys.
func flattenText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '[':
		var nested []json.RawMessage
		if err := json.Unmarshal(trimmed, &nested); err != nil {
			return "", err
		}
		parts := make([]string, 0, len(nested))
		for _, n := range nested {
			p, err := flattenText(n)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return strings.Join(parts, "; "), nil
	case '{':
		return "", errors.New("expected a string, got an object")
	default:
		if bytes.Equal(trimmed, []byte("null")) {
			return "", nil
		}
		// numbers and booleans keep their literal form
		return string(trimmed), nil
	}
}

// ScopeRecord is the project scope document.
type ScopeRecord struct {
	ProjectTitle             string   `json:"project_title"`
	Objectives               TextList `json:"objectives"`
	ScopeIn                  TextList `json:"scope_in"`
	ScopeOut                 TextList `json:"scope_out"`
	Navigation               TextList `json:"navigation"`
	GapAnalysis              TextList `json:"gap_analysis"`
	StrategicRecommendations TextList `json:"strategic_recommendations"`
}

// Schema returns SchemaScope.
func (r *ScopeRecord) Schema() Schema { return SchemaScope }

func (r *ScopeRecord) normalise() {
	for _, l := range []*TextList{
		&r.Objectives, &r.ScopeIn, &r.ScopeOut, &r.Navigation, &r.GapAnalysis, &r.StrategicRecommendations,
	} {
		if *l == nil {
			*l = TextList{}
		}
	}
}

// HeaderNavItem is one row of the header navigation hierarchy.
type HeaderNavItem struct {
	MainNav          string `json:"main_nav"`
	Dropdown         string `json:"dropdown"`
	FinalDestination string `json:"final_destination"`
	PageType         string `json:"page_type"`
	PageDescription  string `json:"page_description"`
	KeySections      string `json:"key_sections"`
	ContentType      string `json:"content_type"`
	ContentLink      string `json:"content_link"`
	Status           string `json:"status"`
	ClientNotes      string `json:"client_notes"`
}

// FooterNavItem is one row of the footer navigation hierarchy.
type FooterNavItem struct {
	MenuTitle       string `json:"menu_title"`
	NestedItems     string `json:"nested_items"`
	PageType        string `json:"page_type"`
	PageDescription string `json:"page_description"`
	KeySections     string `json:"key_sections"`
	ContentType     string `json:"content_type"`
	ContentLink     string `json:"content_link"`
	Status          string `json:"status"`
	ClientNotes     string `json:"client_notes"`
}

// WebsiteAsset is one asset the site build requires.
type WebsiteAsset struct {
	AssetRequired string `json:"asset_required"`
	Description   string `json:"description"`
	ContentType   string `json:"content_type"`
	ContentLink   string `json:"content_link"`
	Status        string `json:"status"`
	ClientNotes   string `json:"client_notes"`
}

// FrameworkRecord is the website content framework.
type FrameworkRecord struct {
	HeaderNav     []HeaderNavItem `json:"header_nav"`
	FooterNav     []FooterNavItem `json:"footer_nav"`
	WebsiteAssets []WebsiteAsset  `json:"website_assets"`
	CTAStrategy   string          `json:"cta_strategy"`
}

// Schema returns SchemaFramework.
func (r *FrameworkRecord) Schema() Schema { return SchemaFramework }

func (r *FrameworkRecord) normalise() {
	if r.HeaderNav == nil {
		r.HeaderNav = []HeaderNavItem{}
	}
	if r.FooterNav == nil {
		r.FooterNav = []FooterNavItem{}
	}
	if r.WebsiteAssets == nil {
		r.WebsiteAssets = []WebsiteAsset{}
	}
}

// DecodeRecord strictly parses data as an instance of schema.
// It returns a MalformedOutputError when data is not a JSON object and a
// ValidationError when required fields are missing or mistyped.
func DecodeRecord(schema Schema, data []byte) (Record, error) {
	rec, err := schema.New()
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &MalformedOutputError{Reason: "not a JSON object", Snippet: snippet(string(data)), Err: err}
	}
	if fields == nil {
		return nil, &MalformedOutputError{Reason: "not a JSON object", Snippet: snippet(string(data))}
	}

	var missing []string
	for _, name := range schema.RequiredFields() {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Schema: schema, Missing: missing}
	}

	if err := json.Unmarshal(data, rec); err != nil {
		return nil, &ValidationError{Schema: schema, Err: err}
	}
	rec.normalise()
	return rec, nil
}

// EncodeRecord renders a record as indented JSON with every field present.
func EncodeRecord(rec Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidInput)
	}
	rec.normalise()
	return json.MarshalIndent(rec, "", "  ")
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
