// Package config loads, validates, and normalizes jokebox configuration.
//
// Configuration is TOML, resolved from an explicit path, then
// ~/.config/jokebox/config.toml, then ./jokebox.toml. Defaults cover every
// field so a missing file is not an error. Loaded configs have all path
// fields expanded to absolute form and the content language canonicalized.
package config
