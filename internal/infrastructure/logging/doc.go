// Package logging builds the process zap logger.
//
// Production output is one JSON object per line with "time", "level",
// "component" and "message" keys. Development output is colored console text.
// The level is shared by every component logger and can be changed at runtime.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	log := logger.Component("autosave")
//	log.Warn("Slot write failed", zap.String("slot", "tree"), zap.Error(err))
package logging
