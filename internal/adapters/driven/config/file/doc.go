// Package file keeps vpm's user-editable state under ~/.vpm: config.toml
// (overridable per key with VPM_* environment variables) and the prompts/
// directory, which is seeded from embedded defaults and hot reloaded by
// WatchPrompts.
package file
