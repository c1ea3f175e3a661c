package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
)

// GenerateScopeInput is the input schema for the generate_scope tool.
type GenerateScopeInput struct {
	Notes string `json:"notes" jsonschema:"free-form project notes, meeting transcript or brief"`
	Mode  string `json:"mode,omitempty" jsonschema:"single (default) or hybrid"`
}

// GenerateFrameworkInput is the input schema for the generate_framework tool.
type GenerateFrameworkInput struct {
	Notes string `json:"notes" jsonschema:"free-form project notes the framework is built from"`
	Scope string `json:"scope,omitempty" jsonschema:"scope record JSON to build the framework on"`
	Mode  string `json:"mode,omitempty" jsonschema:"single (default) or hybrid"`
}

// GenerateOutput is the output schema for the generation tools.
// Exactly one of Scope and Framework is set.
type GenerateOutput struct {
	Scope     *domain.ScopeRecord     `json:"scope,omitempty"`
	Framework *domain.FrameworkRecord `json:"framework,omitempty"`
	Quality   domain.QualityReport    `json:"quality"`
}

// FindMatchInput is the input schema for the find_match tool.
type FindMatchInput struct {
	Text string `json:"text" jsonschema:"text to compare against the reference store"`
}

// FindMatchOutput is the output schema for the find_match tool.
type FindMatchOutput struct {
	Found bool                `json:"found"`
	Match *domain.MatchResult `json:"match,omitempty"`
}

// IndexExampleInput is the input schema for the index_example tool.
type IndexExampleInput struct {
	ID       string `json:"id,omitempty" jsonschema:"document id, generated when empty"`
	Input    string `json:"input" jsonschema:"the notes the example was produced from"`
	Expected string `json:"expected" jsonschema:"the expected output for those notes"`
	Client   string `json:"client,omitempty" jsonschema:"client or project name"`
}

// IndexFeedbackInput is the input schema for the index_feedback tool.
type IndexFeedbackInput struct {
	Feedback  string `json:"feedback" jsonschema:"reviewer feedback text"`
	Record    string `json:"record,omitempty" jsonschema:"record JSON the feedback is about"`
	Scope     string `json:"scope,omitempty" jsonschema:"scope JSON, used together with framework"`
	Framework string `json:"framework,omitempty" jsonschema:"framework JSON, used together with scope"`
}

// IndexOutput is the output schema for the indexing tools.
type IndexOutput struct {
	ID string `json:"id"`
}

// MergeInput is the input schema for the merge_records tool.
type MergeInput struct {
	Schema string `json:"schema" jsonschema:"scope or framework"`
	A      string `json:"a" jsonschema:"preferred record JSON"`
	B      string `json:"b" jsonschema:"second record JSON"`
}

// EvaluateInput is the input schema for the evaluate tool.
type EvaluateInput struct {
	Generated string `json:"generated" jsonschema:"generated output to score"`
	Expected  string `json:"expected,omitempty" jsonschema:"expected output; when empty the nearest stored example for input is used"`
	Input     string `json:"input,omitempty" jsonschema:"original notes, used to find a reference example"`
}

// EvaluateOutput is the output schema for the evaluate tool.
type EvaluateOutput struct {
	Found  bool                    `json:"found"`
	Result domain.EvaluationResult `json:"result"`
}

// CheckQualityInput is the input schema for the check_quality tool.
type CheckQualityInput struct {
	Schema string `json:"schema" jsonschema:"scope or framework"`
	Record string `json:"record" jsonschema:"record JSON to check"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_scope",
		Description: "Generate a project scope record from free-form notes",
	}, s.handleGenerateScope)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_framework",
		Description: "Generate a website content framework from notes and an optional scope",
	}, s.handleGenerateFramework)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "merge_records",
		Description: "Merge two records of the same schema, preferring the first for scalar fields",
	}, s.handleMerge)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_quality",
		Description: "Run the completeness and terminology checks on a record",
	}, s.handleCheckQuality)

	if s.ports.Knowledge != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "find_match",
			Description: "Find the nearest stored reference document",
		}, s.handleFindMatch)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_example",
			Description: "Store an input and expected-output pair as a reference example",
		}, s.handleIndexExample)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_feedback",
			Description: "Store reviewer feedback about generated records",
		}, s.handleIndexFeedback)
	}

	if s.ports.Evaluation != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "evaluate",
			Description: "Score generated output against expected output",
		}, s.handleEvaluate)
	}
}

func (s *Server) handleGenerateScope(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateScopeInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	rec, err := s.ports.Generation.GenerateRecord(ctx, driving.GenerateRequest{
		Schema:   domain.SchemaScope,
		RawInput: input.Notes,
		Mode:     domain.GenerationMode(input.Mode),
	})
	if err != nil {
		return nil, GenerateOutput{}, err
	}
	return nil, generateOutput(rec), nil
}

func (s *Server) handleGenerateFramework(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateFrameworkInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	hint := strings.TrimSpace(input.Scope)
	if hint != "" {
		scope, err := domain.DecodeRecord(domain.SchemaScope, []byte(hint))
		if err != nil {
			return nil, GenerateOutput{}, fmt.Errorf("scope: %w", err)
		}
		data, err := domain.EncodeRecord(scope)
		if err != nil {
			return nil, GenerateOutput{}, err
		}
		hint = string(data)
	}

	rec, err := s.ports.Generation.GenerateRecord(ctx, driving.GenerateRequest{
		Schema:      domain.SchemaFramework,
		RawInput:    input.Notes,
		ContextHint: hint,
		Mode:        domain.GenerationMode(input.Mode),
	})
	if err != nil {
		return nil, GenerateOutput{}, err
	}
	return nil, generateOutput(rec), nil
}

func (s *Server) handleMerge(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input MergeInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	schema, err := domain.ParseSchema(input.Schema)
	if err != nil {
		return nil, GenerateOutput{}, err
	}
	a, err := domain.DecodeRecord(schema, []byte(input.A))
	if err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("record a: %w", err)
	}
	b, err := domain.DecodeRecord(schema, []byte(input.B))
	if err != nil {
		return nil, GenerateOutput{}, fmt.Errorf("record b: %w", err)
	}

	merged, err := s.ports.Generation.MergeRecords(a, b)
	if err != nil {
		return nil, GenerateOutput{}, err
	}
	return nil, generateOutput(merged), nil
}

func (s *Server) handleCheckQuality(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CheckQualityInput,
) (*mcp.CallToolResult, domain.QualityReport, error) {
	schema, err := domain.ParseSchema(input.Schema)
	if err != nil {
		return nil, domain.QualityReport{}, err
	}
	rec, err := domain.DecodeRecord(schema, []byte(input.Record))
	if err != nil {
		return nil, domain.QualityReport{}, err
	}
	report, err := domain.AssessRecord(rec)
	if err != nil {
		return nil, domain.QualityReport{}, err
	}
	return nil, report, nil
}

func (s *Server) handleFindMatch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindMatchInput,
) (*mcp.CallToolResult, FindMatchOutput, error) {
	match, err := s.ports.Knowledge.FindBestHistoricalMatch(ctx, input.Text)
	if err != nil {
		return nil, FindMatchOutput{}, err
	}
	return nil, FindMatchOutput{Found: match != nil, Match: match}, nil
}

func (s *Server) handleIndexExample(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexExampleInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	id, err := s.ports.Knowledge.AddExample(ctx, input.ID, input.Input, input.Expected, input.Client)
	if err != nil {
		return nil, IndexOutput{}, err
	}
	return nil, IndexOutput{ID: id}, nil
}

func (s *Server) handleIndexFeedback(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexFeedbackInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	var (
		id  string
		err error
	)
	switch {
	case input.Scope != "" && input.Framework != "":
		id, err = s.ports.Knowledge.IndexReviewFeedback(ctx, input.Scope, input.Framework, input.Feedback)
	case input.Record != "":
		id, err = s.ports.Knowledge.IndexFeedback(ctx, input.Record, input.Feedback)
	default:
		err = fmt.Errorf("%w: provide record, or scope and framework", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, IndexOutput{}, err
	}
	return nil, IndexOutput{ID: id}, nil
}

func (s *Server) handleEvaluate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EvaluateInput,
) (*mcp.CallToolResult, EvaluateOutput, error) {
	if input.Expected != "" {
		res, err := s.ports.Evaluation.Evaluate(ctx, input.Generated, input.Expected)
		if err != nil {
			return nil, EvaluateOutput{}, err
		}
		return nil, EvaluateOutput{Found: true, Result: res}, nil
	}
	if input.Input == "" {
		return nil, EvaluateOutput{}, fmt.Errorf("%w: provide expected or input", domain.ErrInvalidInput)
	}

	res, found, err := s.ports.Evaluation.EvaluateAgainstReference(ctx, input.Input, input.Generated)
	if err != nil {
		return nil, EvaluateOutput{}, err
	}
	return nil, EvaluateOutput{Found: found, Result: res}, nil
}

// generateOutput wraps a record with its quality report.
func generateOutput(rec domain.Record) GenerateOutput {
	var out GenerateOutput
	switch r := rec.(type) {
	case *domain.ScopeRecord:
		out.Scope = r
		out.Quality = domain.AssessScope(r)
	case *domain.FrameworkRecord:
		out.Framework = r
		out.Quality = domain.AssessFramework(r)
	}
	return out
}
