// Package configs provides embedded configuration templates for globwalk.
//
// Templates are embedded at build time using Go's //go:embed directive so
// they ship with every distribution, whether installed from source or as a
// release binary.
//
// The init command writes ProjectConfigTemplate to .globwalk.yaml in the
// project root, or UserConfigTemplate to ~/.config/globwalk/config.yaml
// with --user.
//
// Load in internal/config layers the sources: built-in defaults, then the
// user config, then the project config, then GLOBWALK_* environment
// variables.
package configs

import _ "embed"

// ProjectConfigTemplate is the template for project-level configuration,
// written to .globwalk.yaml by `globwalk init`. Settings here are
// version-controlled with the project.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

// UserConfigTemplate is the template for user/machine-level configuration,
// written to ~/.config/globwalk/config.yaml by `globwalk init --user`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
