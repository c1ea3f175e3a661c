package domain

import (
	"fmt"
	"strings"
)

// Schema identifies a structured record type produced from model output.
type Schema string

// Available record schemas.
const (
	// SchemaScope is the project scope document.
	SchemaScope Schema = "scope"

	// SchemaFramework is the website content framework.
	SchemaFramework Schema = "framework"
)

// IsValid returns true if the schema is recognised.
func (s Schema) IsValid() bool {
	switch s {
	case SchemaScope, SchemaFramework:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Schema) String() string {
	return string(s)
}

// Description returns a human-readable description of the schema.
func (s Schema) Description() string {
	switch s {
	case SchemaScope:
		return "Project Scope Document"
	case SchemaFramework:
		return "Content Framework"
	default:
		return "Unknown"
	}
}

// Fields returns the schema's JSON field names in declaration order.
func (s Schema) Fields() []string {
	switch s {
	case SchemaScope:
		return []string{
			"project_title", "objectives", "scope_in", "scope_out",
			"navigation", "gap_analysis", "strategic_recommendations",
		}
	case SchemaFramework:
		return []string{"header_nav", "footer_nav", "website_assets", "cta_strategy"}
	default:
		return nil
	}
}

// RequiredFields returns the fields a record instance must carry.
func (s Schema) RequiredFields() []string {
	switch s {
	case SchemaScope:
		return []string{"project_title", "objectives", "scope_in", "scope_out", "navigation", "gap_analysis"}
	case SchemaFramework:
		return []string{"header_nav", "footer_nav", "website_assets", "cta_strategy"}
	default:
		return nil
	}
}

// FirstField returns the first field a well-formed instance starts with.
func (s Schema) FirstField() string {
	fields := s.Fields()
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// New returns a zero record of this schema, ready for decoding.
func (s Schema) New() (Record, error) {
	switch s {
	case SchemaScope:
		return &ScopeRecord{}, nil
	case SchemaFramework:
		return &FrameworkRecord{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, string(s))
	}
}

// Empty returns the minimal valid record of this schema: every field is
// present with an empty string or empty list.
func (s Schema) Empty() Record {
	switch s {
	case SchemaScope:
		return &ScopeRecord{
			Objectives:               TextList{},
			ScopeIn:                  TextList{},
			ScopeOut:                 TextList{},
			Navigation:               TextList{},
			GapAnalysis:              TextList{},
			StrategicRecommendations: TextList{},
		}
	case SchemaFramework:
		return &FrameworkRecord{
			HeaderNav:     []HeaderNavItem{},
			FooterNav:     []FooterNavItem{},
			WebsiteAssets: []WebsiteAsset{},
		}
	default:
		return nil
	}
}

// ParseSchema resolves a schema name, case-insensitively.
func ParseSchema(name string) (Schema, error) {
	s := Schema(strings.ToLower(strings.TrimSpace(name)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return s, nil
}

// AllSchemas returns all available record schemas.
func AllSchemas() []Schema {
	return []Schema{SchemaScope, SchemaFramework}
}
