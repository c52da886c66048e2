package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func TestAddItem_IncrementsExistingLine(t *testing.T) {
	db, auth, catalog, cart, _, _ := newTestServices(t)

	buyer := createBuyer(t, auth, "alice")
	seller := createSeller(t, auth, "Acme")
	prod := createProduct(t, catalog, seller.ID, "Mug", 9.5, 100)

	ctx := context.Background()

	first, err := cart.AddItem(ctx, buyer.ID, prod.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Quantity, "zero quantity defaults to 1")

	second, err := cart.AddItem(ctx, buyer.ID, prod.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same product reuses the line")
	assert.Equal(t, uint(3), second.Quantity)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "at most one line per product")
}

func TestAddItem_UnknownProduct(t *testing.T) {
	_, auth, _, cart, _, _ := newTestServices(t)

	buyer := createBuyer(t, auth, "alice")

	_, err := cart.AddItem(context.Background(), buyer.ID, 9999, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddItem_NoStockCheck(t *testing.T) {
	_, auth, catalog, cart, _, _ := newTestServices(t)

	buyer := createBuyer(t, auth, "alice")
	seller := createSeller(t, auth, "Acme")
	prod := createProduct(t, catalog, seller.ID, "Mug", 9.5, 1)

	// carting more than the stock is allowed, the order step rejects it
	item, err := cart.AddItem(context.Background(), buyer.ID, prod.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, uint(5), item.Quantity)
}

func TestGetCart_LinesAndTotal(t *testing.T) {
	_, auth, catalog, cart, _, _ := newTestServices(t)

	buyer := createBuyer(t, auth, "alice")
	seller := createSeller(t, auth, "Acme")
	mug := createProduct(t, catalog, seller.ID, "Mug", 9.5, 100)
	pen := createProduct(t, catalog, seller.ID, "Pen", 2.0, 100)

	ctx := context.Background()
	_, err := cart.AddItem(ctx, buyer.ID, mug.ID, 2)
	require.NoError(t, err)
	_, err = cart.AddItem(ctx, buyer.ID, pen.ID, 3)
	require.NoError(t, err)

	lines, total, err := cart.GetCart(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 2*9.5+3*2.0, total)
	assert.Equal(t, 2*9.5, lines[0].LineTotal)
}

func TestRemoveItem(t *testing.T) {
	_, auth, catalog, cart, _, _ := newTestServices(t)

	buyer := createBuyer(t, auth, "alice")
	other := createBuyer(t, auth, "bob")
	seller := createSeller(t, auth, "Acme")
	prod := createProduct(t, catalog, seller.ID, "Mug", 9.5, 100)

	ctx := context.Background()
	item, err := cart.AddItem(ctx, buyer.ID, prod.ID, 1)
	require.NoError(t, err)

	// another user cannot remove it
	require.ErrorIs(t, cart.RemoveItem(ctx, other.ID, item.ID), ErrNotFound)

	require.NoError(t, cart.RemoveItem(ctx, buyer.ID, item.ID))

	lines, total, err := cart.GetCart(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Zero(t, total)

	require.ErrorIs(t, cart.RemoveItem(ctx, buyer.ID, item.ID), ErrNotFound)
}
