// Package config loads application configuration from environment variables
// into tagged structs, with optional .env file support for local development.
//
// It wraps github.com/caarlos0/env/v11 for parsing and
// github.com/joho/godotenv for .env loading. Each configuration type is
// parsed once per process and cached, so packages can declare their own
// config structs and call Load without coordinating startup order.
package config
