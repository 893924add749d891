// Package config loads application settings from YAML and the environment.
//
// Settings are layered: built-in defaults, then the YAML file, then
// environment variables (after optional .env loading). Validate checks the
// result before any client is opened.
package config
