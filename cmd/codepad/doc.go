// Package main is the codepad command: the editor backend server plus a few
// offline maintenance commands against the same store.
//
// Configuration:
//   - Environment variables (12-factor, see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Serve the editor API on :8000 with the file store in ~/.codepad
//	codepad serve --port 8000
//
//	# Development mode (colored logs, debug level, in-memory store)
//	codepad serve --dev --store memory
//
//	# Back up, restore, and wipe the saved project
//	codepad export --out project.json
//	codepad import project.json
//	codepad reset
//
// Signals:
//   - SIGINT, SIGTERM: flush pending saves and shut down
package main
