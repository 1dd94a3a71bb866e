package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sagradodoce/internal/config"
	"sagradodoce/models"
)

func migratedSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:db-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := AutoMigrate(database); err != nil {
		t.Fatalf("automigrate sqlite database: %v", err)
	}
	return database
}

func TestInitializeRequiresURL(t *testing.T) {
	t.Parallel()

	db, err := Initialize(config.DatabaseConfig{URL: ""})
	if err == nil {
		t.Fatal("expected error when database URL is empty")
	}
	if db != nil {
		t.Fatal("expected returned db handle to be nil on error")
	}
}

func TestAutoMigrateRejectsNilDatabase(t *testing.T) {
	t.Parallel()

	if err := AutoMigrate(nil); err == nil {
		t.Fatal("expected error when database handle is nil")
	}
}

func TestAutoMigrateWithSQLite(t *testing.T) {
	t.Parallel()

	sqliteDB, err := gorm.Open(sqlite.Open("file:memdb?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}

	if err := AutoMigrate(sqliteDB); err != nil {
		t.Fatalf("automigrate sqlite database: %v", err)
	}

	for _, model := range models.All() {
		if !sqliteDB.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T to exist", model)
		}
	}
}

func TestConfigurePropagatesInitializationError(t *testing.T) {
	t.Parallel()

	if _, err := Configure(config.DatabaseConfig{}); err == nil {
		t.Fatal("expected configuration error when initialize fails")
	}
}

func TestMustConfigurePanicsOnError(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when configuration fails")
		}
	}()

	MustConfigure(config.DatabaseConfig{})
}

func TestAutoMigrateEnforcesCaseInsensitiveNames(t *testing.T) {
	t.Parallel()

	database := migratedSQLite(t)
	if err := AutoMigrate(database); err != nil {
		t.Fatalf("second migration should be a no-op, got %v", err)
	}

	for _, idx := range nameIndexes {
		if !database.Migrator().HasIndex(idx.table, idx.name) {
			t.Fatalf("expected index %s on %s", idx.name, idx.table)
		}
	}

	if err := database.Create(&models.Seller{Name: "Dona Lia"}).Error; err != nil {
		t.Fatalf("create seller: %v", err)
	}
	if err := database.Create(&models.Seller{Name: "DONA LIA"}).Error; err == nil {
		t.Fatal("expected a second seller differing only in case to be rejected")
	}
}

func TestEnsureOperator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := migratedSQLite(t)
	operator := config.OperatorConfig{Email: " Caixa@SagradoDoce.app ", Name: "Balcão", Password: "brigadeiro"}

	created, err := EnsureOperator(ctx, database, operator)
	if err != nil {
		t.Fatalf("EnsureOperator() error = %v", err)
	}
	if !created {
		t.Fatal("expected the operator to be created on an empty database")
	}

	var user models.User
	if err := database.Where("email = ?", "caixa@sagradodoce.app").First(&user).Error; err != nil {
		t.Fatalf("load operator: %v", err)
	}
	if user.Name != "Balcão" {
		t.Fatalf("unexpected operator name %q", user.Name)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brigadeiro")); err != nil {
		t.Fatalf("expected stored hash to match the password: %v", err)
	}

	operator.Password = "another-password"
	created, err = EnsureOperator(ctx, database, operator)
	if err != nil {
		t.Fatalf("EnsureOperator() second call error = %v", err)
	}
	if created {
		t.Fatal("expected an existing operator to be left alone")
	}
	var again models.User
	if err := database.First(&again, user.ID).Error; err != nil {
		t.Fatalf("reload operator: %v", err)
	}
	if again.PasswordHash != user.PasswordHash {
		t.Fatal("expected the existing password to be kept")
	}
}

func TestEnsureOperatorRejectsIncompleteAccounts(t *testing.T) {
	t.Parallel()

	database := migratedSQLite(t)
	tests := []struct {
		name     string
		operator config.OperatorConfig
	}{
		{name: "missing email", operator: config.OperatorConfig{Password: "brigadeiro"}},
		{name: "short password", operator: config.OperatorConfig{Email: "caixa@sagradodoce.app", Password: "doce"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EnsureOperator(context.Background(), database, tt.operator); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
	if _, err := EnsureOperator(context.Background(), nil, config.OperatorConfig{}); err == nil {
		t.Fatal("expected an error for a nil database")
	}
}
