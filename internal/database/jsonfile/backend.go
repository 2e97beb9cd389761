package jsonfile

import (
	"context"

	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/database"
)

func init() {
	database.RegisterBackend(config.BackendJSON, Open)
}

// Open builds the file backend from configuration.
func Open(ctx context.Context, cfg *config.Config) (*database.Backend, error) {
	return database.NewBackend(config.BackendJSON,
		NewRegistry(cfg.RegistryPath),
		NewLedger(cfg.LedgerPath),
		nil,
	), nil
}
