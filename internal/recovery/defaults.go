package recovery

import (
	"github.com/custodia-labs/vpm/internal/adapters/driven/config/values"
	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

// RegisterDefaults adds every built-in strategy under its pipeline name.
func RegisterDefaults(r *Registry) {
	r.Register("preclean", staticBuilder(Precleaner{}))
	r.Register("unwrap_fence", staticBuilder(FenceUnwrapper{}))
	r.Register("brace_bound", staticBuilder(BraceBounder{}))
	r.Register("continuation", staticBuilder(ContinuationRepairer{}))
	r.Register("regurgitation", buildRegurgitation)
	r.Register("strict", staticBuilder(StrictParser{}))
	r.Register("regex_salvage", buildRegexSalvage)
	r.Register("generic_json", staticBuilder(GenericJSONSalvager{}))
}

// NewDefaultPipeline builds the pipeline for the given strategy names using
// the built-in strategies. An empty list uses the default order.
func NewDefaultPipeline(names []string) (*Pipeline, error) {
	if len(names) == 0 {
		names = domain.DefaultRecoveryStrategies()
	}
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(names, nil)
}

func staticBuilder(s driven.RecoveryStrategy) BuilderFunc {
	return func(map[string]any) (driven.RecoveryStrategy, error) {
		return s, nil
	}
}

// buildRegurgitation reads markers, a list of regular expressions that
// replaces the built-in instruction markers.
func buildRegurgitation(cfg map[string]any) (driven.RecoveryStrategy, error) {
	return NewRegurgitationDetector(getStringsFromConfig(cfg, "markers")...)
}

// buildRegexSalvage reads max_candidates, the number of balanced-brace
// candidates tried before giving up. Numeric strings are accepted.
func buildRegexSalvage(cfg map[string]any) (driven.RecoveryStrategy, error) {
	var opts []SalvageOption
	if n := values.Int(cfg["max_candidates"]); n > 0 {
		opts = append(opts, WithMaxCandidates(n))
	}
	return NewRegexSalvager(opts...), nil
}

// getStringsFromConfig reads a list without splitting strings, since
// markers may contain commas.
func getStringsFromConfig(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
