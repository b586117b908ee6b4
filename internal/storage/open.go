package storage

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"smartcampus/backend/internal/config"
)

// Open connects the store selected by cfg.Store.Driver. The returned close
// function releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.Logger) (Storage, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFirestore:
		if app == nil {
			return nil, nil, fmt.Errorf("firestore store requires a firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("connect firestore: %w", err)
		}
		logger.Info("Using Firestore store", zap.String("project", cfg.Google.ProjectID))
		return NewFirestoreStore(client), client.Close, nil

	default:
		db, err := gorm.Open(postgres.Open(cfg.Store.PostgresDSN), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		s := NewStorageService(db)
		if err := s.Migrate(ctx); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Database connection established, migrations complete")
		return s, sqlDB.Close, nil
	}
}
