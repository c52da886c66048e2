package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.SellerProfile{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.RefreshToken{},
	))
	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *AuthService, *CatalogService, *CartService, *OrderService, *events.Memory) {
	t.Helper()

	db := newTestDB(t)
	mem := &events.Memory{}
	return db,
		&AuthService{DB: db, Producer: mem},
		&CatalogService{DB: db, Producer: mem},
		&CartService{DB: db, Producer: mem},
		&OrderService{DB: db, Producer: mem},
		mem
}

func createBuyer(t *testing.T, auth *AuthService, username string) *models.User {
	t.Helper()

	user, err := auth.RegisterBuyer(context.Background(), RegisterBuyerInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "password",
		PasswordConfirm: "password",
	})
	require.NoError(t, err)
	return user
}

func createSeller(t *testing.T, auth *AuthService, shopName string) *models.User {
	t.Helper()

	user, err := auth.RegisterSeller(context.Background(), RegisterSellerInput{
		ShopName: shopName,
		Email:    "shop@example.com",
		Password: "password",
	})
	require.NoError(t, err)
	return user
}

func createProduct(t *testing.T, catalog *CatalogService, sellerID uint, name string, price float64, quantity uint) *models.Product {
	t.Helper()

	prod, err := catalog.CreateProduct(context.Background(), sellerID, ProductInput{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Quantity:    quantity,
		ProductType: "misc",
	})
	require.NoError(t, err)
	return prod
}
