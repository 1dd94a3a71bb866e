package mock

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"sagradodoce/models"
)

func TestNewSeedsExpectedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	var ingredients []models.Ingredient
	if err := db.WithContext(ctx).Find(&ingredients).Error; err != nil {
		t.Fatalf("query ingredients: %v", err)
	}
	if len(ingredients) == 0 {
		t.Fatal("expected seeded ingredients")
	}

	var recipes []models.Recipe
	if err := db.WithContext(ctx).Preload("Lines").Find(&recipes).Error; err != nil {
		t.Fatalf("query recipes: %v", err)
	}
	if len(recipes) == 0 {
		t.Fatal("expected seeded recipes")
	}
	for _, recipe := range recipes {
		if len(recipe.Lines) == 0 || !recipe.TotalCost.IsPositive() {
			t.Fatalf("expected recipe %q to be costed, got %+v", recipe.Name, recipe)
		}
	}

	var open int64
	if err := db.WithContext(ctx).Model(&models.Sale{}).Where("status = ?", models.SaleStatusInProduction).Count(&open).Error; err != nil {
		t.Fatalf("count open sales: %v", err)
	}
	if open == 0 {
		t.Fatal("expected an open sale for the purchase plan")
	}

	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", OperatorEmail).First(&user).Error; err != nil {
		t.Fatalf("query user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(OperatorPassword)); err != nil {
		t.Fatalf("unexpected password hash: %v", err)
	}
}

func TestNewReturnsIndependentDatabases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first, err := New(ctx)
	if err != nil {
		t.Fatalf("first mock database: %v", err)
	}
	if _, err := New(ctx); err != nil {
		t.Fatalf("second mock database: %v", err)
	}

	var users int64
	if err := first.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 1 {
		t.Fatalf("expected one operator per database, got %d", users)
	}
}
