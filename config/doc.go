// Package config loads extractor settings from YAML files, .env files and
// the environment.
//
// Values are read with Viper. Environment variables use the STRUCTURED_
// prefix with underscores for nesting, e.g. STRUCTURED_MAX_RETRIES or
// STRUCTURED_BACKOFF_INITIAL.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.LoadConfig("structured", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
