// Package config handles YAML/TOML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// See configs/lottod.example.yaml for the full schema.
package config
