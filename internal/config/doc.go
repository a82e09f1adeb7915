// Package config loads, normalizes, and validates scribe's TOML
// configuration. Load applies defaults first, then overlays the file (when
// present), expands paths, and validates the result so the rest of the
// program can trust every field.
package config
