package driven

// ConfigStore holds flattened settings keyed by dotted paths such as
// "llm.primary.model" or "generation.backoff_min_seconds".
//
// Typed getters return the zero value when a key is missing or holds a
// different type, so callers apply their own defaults.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int

	// GetFloat also accepts integer values.
	GetFloat(key string) float64

	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set changes a value in memory only; Save writes it out.
	Set(key string, value any) error
	Save() error
	Load() error

	// Path is the backing file, or "" for stores with none.
	Path() string
}
