// Package config loads and validates application configuration from a YAML
// file, a .env file and COURSEGEN_-prefixed environment variables, with
// environment variables taking precedence.
//
// Credentials are validated at load time: a provider without its API key is a
// startup configuration error, never a late runtime failure.
package config
