// Package config loads typed configuration structs from environment
// variables with per-type caching and optional .env bootstrap.
package config
