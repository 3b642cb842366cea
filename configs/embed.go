// Package configs embeds the configuration template written by
// 'scoutsearch config init'.
//
// The template carries the built-in defaults with comments. Keep it in step
// with config.NewConfig; configs_test.go fails when they drift.
package configs

import _ "embed"

// ConfigTemplate is the commented user configuration.
//
//go:embed config.example.yaml
var ConfigTemplate string
