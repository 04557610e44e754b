package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sulthanfragrance/storefront/internal/models"
)

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate runs AutoMigrate plus the partial unique indexes and check
// constraints gorm tags cannot express. The raw SQL is valid on both
// postgres and the sqlite used by tests.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Combo{},
		&models.ComboProduct{},
		&models.User{},
		&models.Address{},
		&models.OTP{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stmts := []string{
		// one active cart per identity
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_user_cart
			ON carts (user_id) WHERE status = 'active' AND user_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_guest_cart
			ON carts (guest_id) WHERE status = 'active' AND guest_id IS NOT NULL`,
		// a second add of the same line increments quantity instead of
		// inserting a duplicate row
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_cart_product_variant
			ON cart_items (cart_id, product_id, variant_id) WHERE item_type = 'product'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_cart_combo
			ON cart_items (cart_id, combo_id) WHERE item_type = 'combo'`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
