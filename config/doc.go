// Package config provides configuration loading and validation for pannier.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (PANNIER_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with PANNIER_ prefix:
//   - server.port → PANNIER_SERVER_PORT
//   - store.backend → PANNIER_STORE_BACKEND
//   - auth.username → PANNIER_AUTH_USERNAME
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and public_url for share links
//   - Store: backend (fs/memory/sqlite/postgres), path, dsn, compress
//   - Auth: enabled flag, credential pair, mode (cookie/token), cookie settings
//   - RateLimit: window and per-action caps
//   - Upload: restrict_types and max_size
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Backend must be fs, memory, sqlite, or postgres
//   - Auth mode must be cookie or token
//   - Log level must be debug, info, warn, or error
package config
