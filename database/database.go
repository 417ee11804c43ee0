package database

import (
	"fmt"

	"studio-app/internal/domain/billing"
	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/gallery"
	"studio-app/internal/domain/shop"
	"studio-app/internal/domain/users"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the application owns, in dependency order.
func Models() []any {
	return []any{
		// core
		&users.User{},

		// booking
		&booking.Package{},
		&booking.Addon{},
		&booking.Child{},
		&booking.Session{},
		&booking.SessionChild{},
		&booking.SessionAddon{},

		// payments
		&billing.PaymentPlan{},
		&billing.Payment{},
		&billing.ProcessedWebhookEvent{},

		// galleries
		&gallery.Gallery{},
		&gallery.Photo{},

		// shop
		&shop.Product{},
		&shop.ProductVariant{},
		&shop.Order{},
		&shop.OrderItem{},
	}
}

// Connect opens the Postgres pool. Unique-key violations come back as
// gorm.ErrDuplicatedKey.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// Migrate enables pgcrypto and auto-migrates all models.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("enable pgcrypto extension: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info("database migrated", zap.Int("tables", len(Models())))
	return nil
}
