package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/recovery"
)

// --- Mock implementations ---

// reply is one scripted LLM response.
type reply struct {
	text string
	err  error
}

// mockLLM implements driven.LLMService with a script of replies.
// Once the script is used up the last reply repeats.
type mockLLM struct {
	mu      sync.Mutex
	model   string
	script  []reply
	prompts []string
	opts    []driven.GenerateOptions
	block   bool
}

func newMockLLM(model string, script ...reply) *mockLLM {
	return &mockLLM{model: model, script: script}
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	n := len(m.prompts)
	block := m.block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if len(m.script) == 0 {
		return "", fmt.Errorf("no scripted reply")
	}
	r := m.script[min(n, len(m.script))-1]
	return r.text, r.err
}

func (m *mockLLM) ModelName() string            { return m.model }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockLLM) prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[i]
}

// mockEmbedding implements driven.EmbeddingService with fixed vectors per
// text, falling back to a letter histogram.
type mockEmbedding struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return histogram(text), nil
}

func (m *mockEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int              { return 4 }
func (m *mockEmbedding) ModelName() string            { return "mock-embed" }
func (m *mockEmbedding) Ping(_ context.Context) error { return nil }
func (m *mockEmbedding) Close() error                 { return nil }

// histogram counts a-f, g-m, n-s and t-z.
func histogram(text string) []float32 {
	v := make([]float32, 4)
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'f':
			v[0]++
		case r >= 'g' && r <= 'm':
			v[1]++
		case r >= 'n' && r <= 's':
			v[2]++
		case r >= 't' && r <= 'z':
			v[3]++
		}
	}
	return v
}

// stubPrompts implements driven.PromptStore with short fixed templates.
type stubPrompts struct{}

var stubTemplates = map[string]string{
	driven.PromptScope:     "SCOPE\nCONTEXT:%s\nNOTES:%s",
	driven.PromptFramework: "FRAMEWORK\nSCOPE:%s\nCONTEXT:%s\nNOTES:%s",
	driven.PromptRepair:    "REPAIR %s starting at %s:\n%s",
}

func (stubPrompts) Load(name string) (string, error) {
	t, ok := stubTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return t, nil
}

func (p stubPrompts) Render(name string, args ...any) (string, error) {
	t, err := p.Load(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(t, args...), nil
}

func (stubPrompts) Reload() {}

// sleepRecorder replaces the cascade's timer.
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
	err    error
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

func (s *sleepRecorder) all() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

// --- Fixtures ---

const validScopeJSON = `{"project_title":"Acme Site","objectives":["Grow signups"],` +
	`"scope_in":["Website"],"scope_out":["App"],"navigation":["Home"],"gap_analysis":["No CMS"]}`

const validFrameworkJSON = `{"header_nav":[{"main_nav":"About","dropdown":"","final_destination":"/about"}],` +
	`"footer_nav":[{"menu_title":"Legal","nested_items":"Privacy"}],` +
	`"website_assets":[{"asset_required":"Logo","description":"SVG"}],"cta_strategy":"Book a demo"}`

const schemaEcho = `{"type": "object", "properties": {"project_title": {"type": "string"}}}`

const longGarbage = "I am sorry, I cannot produce that document right now, please try again later."

func testGenerationSettings() domain.GenerationSettings {
	s := domain.DefaultAppSettings().Generation
	s.CallTimeout = 0
	return s
}

func newTestPipeline() driven.OutputRecovery {
	p, err := recovery.NewDefaultPipeline(nil)
	if err != nil {
		panic(err)
	}
	return p
}

func newTestGateway(primary, fallback *mockLLM) *ModelGateway {
	var p, f GatewayTier
	if primary != nil {
		p = GatewayTier{Service: primary, Settings: domain.LLMSettings{Model: primary.model}}
	}
	if fallback != nil {
		f = GatewayTier{Service: fallback, Settings: domain.LLMSettings{Model: fallback.model}}
	}
	return NewModelGateway(p, f, 0)
}

func newTestCascade(primary, fallback *mockLLM, sleeps *sleepRecorder) *Cascade {
	return NewCascade(
		newTestGateway(primary, fallback),
		newTestPipeline(),
		stubPrompts{},
		testGenerationSettings(),
		WithSleep(sleeps.sleep),
		WithJitter(func(lo, _ time.Duration) time.Duration { return lo }),
	)
}
