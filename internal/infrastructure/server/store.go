package server

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codepad/internal/infrastructure/config"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/store"
)

// SQLiteFile is the database name used by the sqlite driver inside Store.Path
const SQLiteFile = "codepad.db"

// OpenStore builds the store stack described by cfg: the driver, the key
// prefix, optional compression, and a write guard. metrics may be nil.
func OpenStore(cfg *config.Config, metrics *monitoring.Metrics, logger *zap.Logger) (store.Store, error) {
	base, err := openDriver(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	st := store.Prefixed(base, cfg.Store.KeyPrefix)
	if cfg.Store.Compress {
		compressed, err := store.NewCompressed(st)
		if err != nil {
			_ = base.Close()
			return nil, err
		}
		st = compressed
	}

	return store.NewGuard(st, store.GuardSettings{
		FailureThreshold: cfg.Autosave.FailureThreshold,
		Cooldown:         cfg.Autosave.Cooldown,
		OnStateChange: func(from, to store.GuardState) {
			logger.Warn("Store guard changed state",
				zap.Stringer("from", from),
				zap.Stringer("to", to))
			if metrics != nil {
				metrics.SetGuardState(int(to))
			}
		},
	}), nil
}

func openDriver(cfg config.StoreConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Info("Using in-memory store; nothing survives a restart")
		return store.NewMemory(0), nil

	case config.DriverFile:
		dir := cfg.Dir()
		logger.Info("Using file store", zap.String("dir", dir), zap.Int("backups", cfg.Backups))
		return store.NewFile(dir, store.FileOptions{Backups: cfg.Backups}, logger.Named("store"))

	case config.DriverSQLite:
		dir := cfg.Dir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		path := filepath.Join(dir, SQLiteFile)
		logger.Info("Using sqlite store", zap.String("path", path))
		return store.NewSQLite(path)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
