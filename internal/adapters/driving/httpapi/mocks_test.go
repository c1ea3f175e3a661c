package httpapi

import (
	"context"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
)

// mockGenerationService is a mock implementation of driving.GenerationService.
type mockGenerationService struct {
	record  domain.Record
	err     error
	lastReq driving.GenerateRequest
}

func (m *mockGenerationService) GenerateRecord(_ context.Context, req driving.GenerateRequest) (domain.Record, error) {
	m.lastReq = req
	return m.record, m.err
}

func (m *mockGenerationService) MergeRecords(a, b domain.Record) (domain.Record, error) {
	if a.Schema() != b.Schema() {
		return nil, domain.ErrSchemaMismatch
	}
	return a, m.err
}

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	match    *domain.MatchResult
	err      error
	feedback []string
	nextID   string
}

func (m *mockKnowledgeService) IndexExample(_ context.Context, _, _ string, _ map[string]string) error {
	return m.err
}

func (m *mockKnowledgeService) AddExample(_ context.Context, id, _, _, _ string) (string, error) {
	if id == "" {
		id = m.nextID
	}
	return id, m.err
}

func (m *mockKnowledgeService) IndexFeedback(_ context.Context, _, feedbackText string) (string, error) {
	m.feedback = append(m.feedback, "record|"+feedbackText)
	return m.nextID, m.err
}

func (m *mockKnowledgeService) IndexReviewFeedback(_ context.Context, _, _, feedbackText string) (string, error) {
	m.feedback = append(m.feedback, "review|"+feedbackText)
	return m.nextID, m.err
}

func (m *mockKnowledgeService) FindBestHistoricalMatch(_ context.Context, _ string) (*domain.MatchResult, error) {
	return m.match, m.err
}

func (m *mockKnowledgeService) FindBestExpectedOutput(_ context.Context, _ string) (string, bool, error) {
	return "", false, m.err
}

func (m *mockKnowledgeService) SimilarContext(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, m.err
}

func (m *mockKnowledgeService) Count(_ context.Context) (int, error) {
	return 0, m.err
}

// mockEvaluationService is a mock implementation of driving.EvaluationService.
type mockEvaluationService struct {
	result domain.EvaluationResult
	found  bool
	err    error
}

func (m *mockEvaluationService) Evaluate(_ context.Context, _, _ string) (domain.EvaluationResult, error) {
	return m.result, m.err
}

func (m *mockEvaluationService) EvaluateAgainstReference(_ context.Context, _, _ string) (domain.EvaluationResult, bool, error) {
	return m.result, m.found, m.err
}

const testScopeJSON = `{"project_title":"Acme Storefront","objectives":["Grow sales"],` +
	`"scope_in":["Shop"],"scope_out":["App"],"navigation":["Home"],"gap_analysis":["No CMS"]}`

const testFrameworkJSON = `{"header_nav":[{"main_nav":"Home"}],"footer_nav":[],"website_assets":[],` +
	`"cta_strategy":"Shop now"}`
