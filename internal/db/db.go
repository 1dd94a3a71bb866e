package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"sagradodoce/internal/config"
	applog "sagradodoce/internal/log"
	"sagradodoce/models"
)

var DB *gorm.DB

// nameIndexes back the case-insensitive name uniqueness the service checks before
// writing, so concurrent registrations cannot both slip through.
var nameIndexes = []struct {
	name  string
	table string
}{
	{name: "idx_ingredients_name_ci", table: "ingredients"},
	{name: "idx_recipes_name_ci", table: "recipes"},
	{name: "idx_sellers_name_ci", table: "sellers"},
}

// Initialize opens the Postgres database described by cfg and applies the pool limits.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	gormCfg := &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Warn),
		NamingStrategy:         schema.NamingStrategy{},
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.URL), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return db, nil
}

// AutoMigrate creates or updates every bakery table, then adds the unique
// lower(name) indexes for ingredients, recipes and sellers.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	for _, idx := range nameIndexes {
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (lower(name))", idx.name, idx.table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// EnsureOperator creates the configured operator account when no account with that
// email exists yet. An existing account, and its password, are left alone.
func EnsureOperator(ctx context.Context, db *gorm.DB, operator config.OperatorConfig) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("database handle is nil")
	}
	email := models.NormalizeEmail(operator.Email)
	if email == "" {
		return false, fmt.Errorf("operator email must not be empty")
	}
	if len(operator.Password) < 8 {
		return false, fmt.Errorf("operator password must have at least 8 characters")
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		applog.Debug(ctx, "operator already present", "email", email)
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("look up operator: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(operator.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash operator password: %w", err)
	}
	name := strings.TrimSpace(operator.Name)
	if name == "" {
		name = email
	}
	user := models.User{Email: email, Name: name, PasswordHash: string(hash)}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return false, fmt.Errorf("create operator: %w", err)
	}

	applog.Info(ctx, "operator account created", "email", email)
	return true, nil
}

func Configure(cfg config.DatabaseConfig) (*gorm.DB, error) {
	database, err := Initialize(cfg)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(database); err != nil {
		return nil, err
	}

	DB = database

	return database, nil
}

func MustConfigure(cfg config.DatabaseConfig) *gorm.DB {
	database, err := Configure(cfg)
	if err != nil {
		panic(err)
	}

	return database
}

func Get() *gorm.DB {
	return DB
}
