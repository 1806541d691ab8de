// Package app assembles a runnable server from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"gig-market/internal/config"
	model "gig-market/internal/models"
	"gig-market/internal/repository"
	"gig-market/internal/repository/sqlite"
	"gig-market/utils"
)

// Backend is the store selected by configuration. One value serves every role.
type Backend interface {
	repository.MarketStore
	repository.UserDirectory
	repository.UserSeeder
}

// OpenBackend opens the configured store. SQLite databases are migrated before use.
// The returned close function releases the store and is never nil.
func OpenBackend(cfg config.StoreConfig) (Backend, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return repository.NewMemoryRepo(), func() error { return nil }, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("app: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("app: %w", err)
		}
		return sqlite.NewStore(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("app: unknown store driver %q", cfg.Driver)
	}
}

// SeedUsers loads the configured users into the directory
func SeedUsers(ctx context.Context, seeder repository.UserSeeder, users []config.SeedUser) error {
	now := time.Now().UTC()
	for _, u := range users {
		user := model.User{UserID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: now}
		if err := seeder.UpsertUser(ctx, user); err != nil {
			return fmt.Errorf("app: seed user %s: %w", u.ID, err)
		}
	}

	if len(users) > 0 {
		utils.Info("users seeded", map[string]any{"count": len(users)})
	}
	return nil
}
