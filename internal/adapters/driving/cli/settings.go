package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

var settingsTier string

var errNoSettings = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change configuration",
	Long: `Show the configured model tiers, embedding provider, reference store and
generation options. Subcommands change one area interactively and write
~/.vpm/config.toml.`,
	RunE: runSettingsShow,
}

var settingsSubcommands = []*cobra.Command{
	{Use: "show", Short: "Print the current settings", RunE: runSettingsShow},
	{
		Use:   "mode",
		Short: "Choose the default generation mode",
		Long: `Choose the default generation mode:

  single  one cascade starting on the primary tier
  hybrid  a cascade per tier with the two records merged`,
		RunE: runSettingsMode,
	},
	{Use: "llm", Short: "Choose the provider and model for a tier", RunE: runSettingsLLM},
	{Use: "embedding", Short: "Choose the embedding provider", RunE: runSettingsEmbedding},
	{Use: "store", Short: "Choose where reference documents are kept", RunE: runSettingsStore},
	{Use: "validate", Short: "Ping every configured provider", RunE: runSettingsValidate},
}

func init() {
	for _, sub := range settingsSubcommands {
		sub.Args = cobra.NoArgs
		if sub.Use == "llm" {
			sub.Flags().StringVarP(&settingsTier, "tier", "t", string(domain.TierPrimary), "primary or fallback")
		}
		settingsCmd.AddCommand(sub)
	}
	rootCmd.AddCommand(settingsCmd)
}

func currentSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, errNoSettings
	}
	s, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return s, nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	s, err := currentSettings()
	if err != nil {
		return err
	}

	out := &section{cmd: cmd}
	out.llm("Primary LLM", s.Primary)
	out.llm("Fallback LLM", s.Fallback)

	out.title("Embedding")
	out.provider(s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey)
	out.field("Status", configuredStatus(s.Embedding.IsConfigured()))

	out.title("Reference Store")
	out.field("Backend", string(s.Store.Backend))
	switch {
	case s.Store.Backend == domain.StoreBackendPostgres:
		out.field("DSN", displayKey(s.Store.DSN))
	case s.Store.Path != "":
		out.field("Path", s.Store.Path)
	case s.Store.Backend != domain.StoreBackendMemory:
		out.field("Path", "(default)")
	}
	out.field("Dimensions", fmt.Sprint(s.Store.Dimensions))

	g := s.Generation
	out.title("Generation")
	out.field("Mode", g.Mode.Description())
	out.field("Degraded schemas", joinSchemas(g.Degraded))
	out.field("Max attempts", fmt.Sprint(g.MaxAttempts))
	out.field("Backoff", fmt.Sprintf("%s - %s", g.BackoffMin, g.BackoffMax))
	out.field("Call timeout", g.CallTimeout.String())
	out.field("Requests per minute", fmt.Sprint(s.Gateway.RequestsPerMinute))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'vpm settings llm' or 'vpm settings embedding' to fix it.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

// section prints "[Title]" blocks of indented "Key: value" lines.
type section struct {
	cmd     *cobra.Command
	started bool
}

func (s *section) title(name string) {
	if s.started {
		s.cmd.Println()
	}
	s.started = true
	s.cmd.Printf("[%s]\n", name)
}

func (s *section) field(key, value string) {
	s.cmd.Printf("  %s: %s\n", key, value)
}

func (s *section) provider(p domain.AIProvider, model, baseURL, key string) {
	s.field("Provider", p.Description())
	s.field("Model", model)
	if p.IsLocal() && baseURL != "" {
		s.field("Base URL", baseURL)
	}
	if p.RequiresAPIKey() {
		s.field("API Key", displayKey(key))
	}
}

func (s *section) llm(name string, l domain.LLMSettings) {
	s.title(name)
	s.provider(l.Provider, l.Model, l.BaseURL, l.APIKey)
	s.field("Status", configuredStatus(l.IsConfigured()))
}

func runSettingsMode(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	modes := domain.AllGenerationModes()
	labels := make([]string, len(modes))
	for i, m := range modes {
		labels[i] = m.Description()
	}
	i := newPrompter(cmd).choose("Select Generation Mode", labels, 0)
	if i < 0 {
		return errors.New("invalid selection")
	}

	mode := modes[i]
	if err := settingsService.SetGenerationMode(mode); err != nil {
		return fmt.Errorf("set generation mode: %w", err)
	}
	cmd.Printf("Generation mode set to: %s\n", mode.Description())

	if mode == domain.GenerationModeHybrid {
		if s, err := settingsService.Get(); err == nil && !s.Fallback.IsConfigured() {
			cmd.Println("\nNote: Hybrid mode needs a fallback model.")
			cmd.Println("Run 'vpm settings llm --tier fallback' to configure one.")
		}
	}
	return nil
}

// providerForm collects provider, model and key for an LLM tier or the
// embedding service.
type providerForm struct {
	title     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
}

func (f providerForm) run(p *prompter) (domain.AIProvider, string, string, error) {
	labels := make([]string, len(f.providers))
	for i, pr := range f.providers {
		labels[i] = pr.Description()
	}
	provider := f.providers[p.choose(f.title, labels, 1)]
	model := p.ask("Enter model name", f.models[provider])

	if !provider.RequiresAPIKey() {
		return provider, model, "", nil
	}
	env := provider.APIKeyEnv()
	fromEnv := env != "" && os.Getenv(env) != ""
	label := "Enter API key"
	if fromEnv {
		label += " [from " + env + "]"
	}
	key := p.secret(label)
	if key == "" && !fromEnv {
		return "", "", "", errors.New("API key is required for this provider")
	}
	return provider, model, key, nil
}

// validated runs check and reports the outcome on one line.
func validated(cmd *cobra.Command, what string, check func() error) error {
	cmd.Print("Validating configuration... ")
	if err := check(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration: %w", what, err)
	}
	cmd.Println("OK")
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	tier := domain.Tier(strings.ToLower(settingsTier))
	if !tier.IsValid() {
		return fmt.Errorf("invalid tier %q: use primary or fallback", settingsTier)
	}

	form := providerForm{
		title:     fmt.Sprintf("Select %s LLM Provider", tier),
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
	}
	provider, model, key, err := form.run(newPrompter(cmd))
	if err != nil {
		return err
	}
	if err := settingsService.SetLLMProvider(tier, provider, model, key); err != nil {
		return fmt.Errorf("save %s LLM: %w", tier, err)
	}
	if err := validated(cmd, "LLM", func() error { return settingsService.ValidateLLMConfig(tier) }); err != nil {
		return err
	}
	cmd.Printf("%s LLM configured: %s (%s)\n", tier, provider.Description(), model)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	form := providerForm{
		title:     "Select Embedding Provider",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
	}
	provider, model, key, err := form.run(newPrompter(cmd))
	if err != nil {
		return err
	}
	if err := settingsService.SetEmbeddingProvider(provider, model, key); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := validated(cmd, "embedding", settingsService.ValidateEmbeddingConfig); err != nil {
		return err
	}
	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	return nil
}

func runSettingsStore(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	p := newPrompter(cmd)
	backends := domain.AllStoreBackends()
	labels := make([]string, len(backends))
	for i, b := range backends {
		labels[i] = string(b)
	}
	backend := backends[p.choose("Select Reference Store", labels, 1)]

	var location string
	switch backend {
	case domain.StoreBackendPostgres:
		if location = p.secret("Enter PostgreSQL DSN"); location == "" {
			return errors.New("a DSN is required for the postgres backend")
		}
	case domain.StoreBackendMemory:
	default:
		location = p.ask("Enter directory", "default")
		if location == "default" {
			location = ""
		}
	}

	if err := settingsService.SetStoreBackend(backend, location); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	cmd.Printf("Reference store set to: %s\n", backend)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	checks := []struct {
		name string
		err  error
	}{
		{string(domain.TierPrimary), settingsService.ValidateLLMConfig(domain.TierPrimary)},
		{string(domain.TierFallback), settingsService.ValidateLLMConfig(domain.TierFallback)},
		{"embedding", settingsService.ValidateEmbeddingConfig()},
	}

	cmd.Println("Validating providers...")
	failed := 0
	for _, c := range checks {
		if c.err != nil {
			failed++
			cmd.Printf("  %-10s FAILED: %v\n", c.name, c.err)
			continue
		}
		cmd.Printf("  %-10s OK\n", c.name)
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d provider(s) unreachable", failed)
	}
	return nil
}

func displayKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func joinSchemas(schemas []domain.Schema) string {
	if len(schemas) == 0 {
		return "(none)"
	}
	names := make([]string, len(schemas))
	for i, s := range schemas {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
