// Package config provides 12-factor configuration for the codepad server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags override environment variables for the common cases.
//
// Configuration Sections:
//   - Server: HTTP listen address
//   - Store: persistence driver, location, compression, backups, key prefix
//   - Autosave: debounce delays and write guard thresholds
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting
//   - Editor: optional TOML file with default editor preferences
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Serving on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST
//   - STORE_DRIVER, STORE_PATH, STORE_COMPRESS, STORE_BACKUPS, STORE_KEY_PREFIX
//   - AUTOSAVE_DELAY, AUTOSAVE_ACTIVE_DELAY, AUTOSAVE_FAILURE_THRESHOLD, AUTOSAVE_COOLDOWN
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - EDITOR_SETTINGS_FILE
package config
