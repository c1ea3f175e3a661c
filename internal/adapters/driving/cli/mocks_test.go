package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
	"github.com/custodia-labs/vpm/internal/extract"
)

const testScopeJSON = `{"project_title":"Acme Storefront","objectives":["Grow sales"],` +
	`"scope_in":["Shop"],"scope_out":["App"],"navigation":["Home"],"gap_analysis":["No CMS"]}`

const testFrameworkJSON = `{"header_nav":[{"main_nav":"Home"}],"footer_nav":[],"website_assets":[],` +
	`"cta_strategy":"Shop now"}`

// mockGenerationService returns a canned record per schema.
type mockGenerationService struct {
	records  map[domain.Schema]domain.Record
	err      error
	requests []driving.GenerateRequest
}

func newMockGenerationService() *mockGenerationService {
	scope, _ := domain.DecodeRecord(domain.SchemaScope, []byte(testScopeJSON))             //nolint:errcheck // fixture
	framework, _ := domain.DecodeRecord(domain.SchemaFramework, []byte(testFrameworkJSON)) //nolint:errcheck // fixture
	return &mockGenerationService{records: map[domain.Schema]domain.Record{
		domain.SchemaScope:     scope,
		domain.SchemaFramework: framework,
	}}
}

func (m *mockGenerationService) GenerateRecord(_ context.Context, req driving.GenerateRequest) (domain.Record, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.records[req.Schema], nil
}

func (m *mockGenerationService) MergeRecords(a, b domain.Record) (domain.Record, error) {
	if a.Schema() != b.Schema() {
		return nil, domain.ErrSchemaMismatch
	}
	return a, m.err
}

// mockKnowledgeService records indexing calls.
type mockKnowledgeService struct {
	match    *domain.MatchResult
	count    int
	err      error
	indexed  []string
	texts    []string
	metadata []map[string]string
	feedback []string
}

func (m *mockKnowledgeService) IndexExample(_ context.Context, id, text string, metadata map[string]string) error {
	m.indexed = append(m.indexed, id+"|"+metadata[domain.MetaType])
	m.texts = append(m.texts, text)
	m.metadata = append(m.metadata, metadata)
	return m.err
}

func (m *mockKnowledgeService) AddExample(_ context.Context, id, input, expected, client string) (string, error) {
	if id == "" {
		id = "example-generated"
	}
	m.indexed = append(m.indexed, id+"|"+input+"|"+expected+"|"+client)
	return id, m.err
}

func (m *mockKnowledgeService) IndexFeedback(_ context.Context, _, feedbackText string) (string, error) {
	m.feedback = append(m.feedback, "record|"+feedbackText)
	return "feedback-1", m.err
}

func (m *mockKnowledgeService) IndexReviewFeedback(_ context.Context, _, _, feedbackText string) (string, error) {
	m.feedback = append(m.feedback, "review|"+feedbackText)
	return "feedback-2", m.err
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
	return m.count, m.err
}

// mockEvaluationService returns a fixed result.
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

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
}

func newMockSettingsService() *mockSettingsService {
	settings := domain.DefaultAppSettings()
	settings.Primary.APIKey = "gsk-primary-key-1234"
	return &mockSettingsService{settings: settings}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetLLMProvider(tier domain.Tier, provider domain.AIProvider, model, apiKey string) error {
	llm := domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	if tier == domain.TierFallback {
		m.settings.Fallback = llm
	} else {
		m.settings.Primary = llm
	}
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetStoreBackend(backend domain.StoreBackend, location string) error {
	if backend == domain.StoreBackendPostgres && location == "" {
		return errors.New("postgres store requires a DSN")
	}
	m.settings.Store.Backend = backend
	m.settings.Store.Path = location
	return nil
}

func (m *mockSettingsService) SetGenerationMode(mode domain.GenerationMode) error {
	m.settings.Generation.Mode = mode
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }

func (m *mockSettingsService) ValidateLLMConfig(_ domain.Tier) error { return m.pingErr }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	generation *mockGenerationService
	knowledge  *mockKnowledgeService
	evaluation *mockEvaluationService
	settings   *mockSettingsService
}

// setupTestServices installs mock services and returns them with a cleanup
// that restores the previous services and resets command flags.
func setupTestServices() (*testServices, func()) {
	prev := Services{
		Generation:   generationService,
		Knowledge:    knowledgeService,
		Evaluation:   evaluationService,
		Settings:     settingsService,
		WatchPrompts: promptWatcher,
	}

	ts := &testServices{
		generation: newMockGenerationService(),
		knowledge:  &mockKnowledgeService{},
		evaluation: &mockEvaluationService{},
		settings:   newMockSettingsService(),
	}
	SetServices(&Services{
		Generation: ts.generation,
		Knowledge:  ts.knowledge,
		Evaluation: ts.evaluation,
		Settings:   ts.settings,
	})

	return ts, func() {
		SetServices(&prev)
		resetFlags()
	}
}

func resetFlags() {
	generateMode, generateScopeFile, generateReport = "", "", false
	indexID, indexClient = "", ""
	feedbackRecord, feedbackScope, feedbackFrame = "", "", ""
	matchShowAll = false
	chunkSize, chunkOverlap = extract.DefaultChunkSize, extract.DefaultChunkOverlap
	evaluateExpected, evaluateInput = "", ""
	settingsTier = string(domain.TierPrimary)
	mcpPort, mcpHost = 0, "localhost"
	versionShort = false
	verbose = false
}
