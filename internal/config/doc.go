// Package config loads, normalizes, and validates subedit configuration.
//
// Settings come from a TOML file (an explicit --config path, ./subedit.toml,
// or ~/.config/subedit/config.toml) layered over Default. Paths are expanded,
// the editor language is canonicalized to a BCP 47 tag, and provider API keys
// fall back to the environment.
package config
