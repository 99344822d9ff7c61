// Package config handles configuration loading for parley.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	backend:
//	  admin_token: "${PARLEY_ADMIN_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	chat:
//	  min_delay: "600ms"
//	tenant:
//	  refresh_interval: "30s"
//
// # Configuration Sections
//
// Backend connection:
//
//	backend:
//	  url: "http://localhost:3000"
//	  admin_token: "${PARLEY_ADMIN_TOKEN}"  # optional
//
// Persistent store (one driver):
//
//	store:
//	  driver: "sqlite"   # sqlite, redis, memory
//	  path: "~/.local/share/parley/parley.db"
//	  redis_addr: "localhost:6379"
//
// Conversation behavior:
//
//	chat:
//	  min_delay: "600ms"     # typing-indicator floor per send; omitted means 600ms
//	  history_limit: 10      # prior messages sent with each request; omitted means 10
//	  default_agent: ""      # page-supplied default agent id
//
// Web console:
//
//	console:
//	  addr: "127.0.0.1:8090"
//	  password_hash: "${PARLEY_CONSOLE_HASH}"  # bcrypt; empty disables login
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
