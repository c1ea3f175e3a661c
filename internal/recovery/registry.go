package recovery

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

// BuilderFunc creates a RecoveryStrategy from generic config.
// Config is a map of strategy-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.RecoveryStrategy, error)

// Registry maps strategy names to their builders.
// It allows dynamic construction of pipelines from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a strategy builder to the registry.
// Name should be unique and match the strategy's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a strategy by name with the given config.
// Returns error if the strategy name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.RecoveryStrategy, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown recovery strategy: %s", name)
	}
	return builder(cfg)
}

// Has returns true if a strategy with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildPipeline creates a pipeline running the named strategies in order.
// configs holds optional per-strategy settings keyed by strategy name.
func (r *Registry) BuildPipeline(names []string, configs map[string]map[string]any) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range names {
		strategy, err := r.Build(name, configs[name])
		if err != nil {
			return nil, err
		}
		p.Add(strategy)
	}
	return p, nil
}
