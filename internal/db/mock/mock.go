package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sagradodoce/internal/bakery"
	"sagradodoce/internal/config"
	"sagradodoce/internal/costing"
	appdb "sagradodoce/internal/db"
	applog "sagradodoce/internal/log"
	"sagradodoce/models"
)

const (
	// OperatorEmail and OperatorPassword log into the seeded back office.
	OperatorEmail    = "caixa@sagradodoce.app"
	OperatorPassword = "brigadeiro"
)

// New returns an in-memory sqlite database seeded with a small bakery: ingredients,
// recipes, a seller with a consignment, an open order and an opening cash float.
// Every call gets its own database.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:sagradodoce-mock-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// A single connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	if err := appdb.AutoMigrate(db); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	operator := config.OperatorConfig{Email: OperatorEmail, Name: "Balcão", Password: OperatorPassword}
	if _, err := appdb.EnsureOperator(ctx, db, operator); err != nil {
		return err
	}

	service := bakery.New(db, bakery.Options{})

	specs := []bakery.IngredientSpec{
		{Name: "Sugar", PurchaseUnit: "kg", PackageQuantity: 1, PackageCost: decimal.RequireFromString("5.49"), MinimumStock: 2000, InitialStock: 5000},
		{Name: "Wheat Flour", PurchaseUnit: "kg", PackageQuantity: 5, PackageCost: decimal.RequireFromString("24.90"), MinimumStock: 3000, InitialStock: 10000},
		{Name: "Condensed Milk", PurchaseUnit: "g", PackageQuantity: 395, PackageCost: decimal.RequireFromString("7.99"), MinimumStock: 1580, InitialStock: 3950},
		{Name: "Cocoa Powder", PurchaseUnit: "g", PackageQuantity: 200, PackageCost: decimal.RequireFromString("12.50"), MinimumStock: 400, InitialStock: 600},
		{Name: "Butter", PurchaseUnit: "g", PackageQuantity: 200, PackageCost: decimal.RequireFromString("11.90"), MinimumStock: 400, InitialStock: 1000},
		{Name: "Eggs", PurchaseUnit: "unit", PackageQuantity: 30, PackageCost: decimal.RequireFromString("21.00"), MinimumStock: 12, InitialStock: 30},
		{Name: "Whole Milk", PurchaseUnit: "L", PackageQuantity: 1, PackageCost: decimal.RequireFromString("4.79"), MinimumStock: 1000, InitialStock: 2000},
	}
	ingredients := make(map[string]uint, len(specs))
	for _, spec := range specs {
		ingredient, err := service.SaveIngredient(ctx, spec)
		if err != nil {
			return err
		}
		ingredients[ingredient.Name] = ingredient.ID
	}

	brigadeiro, err := service.SaveRecipe(ctx, bakery.RecipeSpec{
		Name:  "Brigadeiro",
		Price: decimal.RequireFromString("3.50"),
		Lines: []costing.LineInput{
			{IngredientID: ingredients["Condensed Milk"], Quantity: 20},
			{IngredientID: ingredients["Cocoa Powder"], Quantity: 2},
			{IngredientID: ingredients["Butter"], Quantity: 1},
		},
	})
	if err != nil {
		return err
	}

	cake, err := service.SaveRecipe(ctx, bakery.RecipeSpec{
		Name:  "Chocolate Cake",
		Price: decimal.RequireFromString("65.00"),
		Lines: []costing.LineInput{
			{IngredientID: ingredients["Wheat Flour"], Quantity: 300},
			{IngredientID: ingredients["Sugar"], Quantity: 250},
			{IngredientID: ingredients["Eggs"], Quantity: 4},
			{IngredientID: ingredients["Cocoa Powder"], Quantity: 80},
			{IngredientID: ingredients["Whole Milk"], Quantity: 240},
			{IngredientID: ingredients["Butter"], Quantity: 100},
		},
	})
	if err != nil {
		return err
	}

	seller, err := service.CreateSeller(ctx, bakery.SellerSpec{Name: "Dona Lia", Phone: "+55 11 98888-1234", Notes: "Sells at the Saturday fair."})
	if err != nil {
		return err
	}
	if _, err := service.CreateConsignment(ctx, seller.ID, brigadeiro.ID, 30); err != nil {
		return err
	}

	if _, err := service.FinalizeSale(ctx, bakery.SaleOrder{
		Customer:      "Marta Souza",
		Lines:         []bakery.OrderLine{{RecipeID: cake.ID, Quantity: 1}, {RecipeID: brigadeiro.ID, Quantity: 20}},
		PaymentMethod: models.PaymentPix,
	}); err != nil {
		return err
	}

	if _, err := service.RecordCashEntry(ctx, bakery.CashEntrySpec{
		Description: "Opening float",
		Amount:      decimal.NewFromInt(150),
		Direction:   models.CashIn,
		Category:    "float",
	}); err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
