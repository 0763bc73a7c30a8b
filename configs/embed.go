// Package configs embeds the configuration templates written by
// `kwsearch config init`.
//
// Configuration layers, lowest first (see internal/config Load):
//  1. Hardcoded defaults
//  2. User config (~/.config/kwsearch/config.yaml)
//  3. Project config (.kwsearch.yaml)
//  4. Environment variables (KWSEARCH_*)
package configs

import _ "embed"

// ProjectConfigTemplate is written to .kwsearch.yaml by `kwsearch config init`.
//
//go:embed kwsearch.example.yaml
var ProjectConfigTemplate string

// UserConfigTemplate is written to ~/.config/kwsearch/config.yaml by
// `kwsearch config init --user`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
