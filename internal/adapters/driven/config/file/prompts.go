package file

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaultFS embed.FS

// readmeFile documents the prompt directory for users editing templates.
const readmeFile = "README.md"

// defaultPrompts holds the embedded templates, trimmed like files on disk.
var defaultPrompts = loadDefaults()

func loadDefaults() map[string]string {
	prompts := make(map[string]string, len(driven.PromptNames()))
	for _, name := range driven.PromptNames() {
		data, err := defaultFS.ReadFile(path.Join("defaults", name+".txt"))
		if err != nil {
			panic(fmt.Sprintf("embedded prompt %q missing: %v", name, err))
		}
		prompts[name] = strings.TrimSpace(string(data))
	}
	return prompts
}

// PromptStore serves prompt templates from ~/.vpm/prompts, seeding the
// directory with the embedded defaults on first use. Nothing touches the
// disk until the first Load.
type PromptStore struct {
	promptDir string

	initOnce sync.Once
	initErr  error

	mu    sync.Mutex
	cache map[string]string
}

// NewPromptStore creates a prompt store. An empty promptDir means
// ~/.vpm/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}
	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template for name. A missing or unreadable file, or a
// directory that cannot be created, falls back to the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.seed)

	def, known := defaultPrompts[name]
	if s.initErr != nil {
		if known {
			return def, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prompt, ok := s.cache[name]; ok {
		return prompt, nil
	}

	data, err := os.ReadFile(s.file(name))
	switch {
	case err == nil:
		s.cache[name] = strings.TrimSpace(string(data))
	case known:
		s.cache[name] = def
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	return s.cache[name], nil
}

// Render fills the template's placeholders with args. A customised
// template whose placeholder count does not match args is ignored in
// favour of the default.
func (s *PromptStore) Render(name string, args ...any) (string, error) {
	tmpl, err := s.Load(name)
	if err != nil {
		return "", err
	}
	if n := countPlaceholders(tmpl); n != len(args) {
		def, ok := defaultPrompts[name]
		if !ok {
			return "", fmt.Errorf("prompt %q expects %d values, got %d", name, n, len(args))
		}
		logger.Warn("prompt %s has %d placeholders, want %d; using the built-in template", s.file(name), n, len(args))
		tmpl = def
	}
	return fmt.Sprintf(tmpl, args...), nil
}

// countPlaceholders counts %s verbs, ignoring escaped %%.
func countPlaceholders(tmpl string) int {
	n := 0
	for i := 0; i < len(tmpl)-1; i++ {
		if tmpl[i] != '%' {
			continue
		}
		if tmpl[i+1] == 's' {
			n++
		}
		i++
	}
	return n
}

// Reload drops cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) file(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

// seed creates the directory and writes any default file that is absent.
// Existing files are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string][]byte{}
	for name, content := range defaultPrompts {
		files[name+".txt"] = []byte(content + "\n")
	}
	readme, err := defaultFS.ReadFile(path.Join("defaults", readmeFile))
	if err != nil {
		s.initErr = err
		return
	}
	files[readmeFile] = readme

	for file, content := range files {
		target := filepath.Join(s.promptDir, file)
		if _, err := os.Stat(target); !os.IsNotExist(err) {
			continue
		}
		if err := os.WriteFile(target, content, 0600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", file, err)
			return
		}
	}
}
