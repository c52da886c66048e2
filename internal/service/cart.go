package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
)

type CartService struct {
	DB       *gorm.DB
	Producer events.Publisher
}

// CartLine joins a cart item to its product for display.
type CartLine struct {
	Item      models.CartItem `json:"item"`
	Product   models.Product  `json:"product"`
	LineTotal float64         `json:"line_total"`
}

// carts are created at registration; a missing cart here means the account
// predates that or was tampered with, treated as not found rather than
// silently created.
func (s *CartService) cartOf(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cart for user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	return &cart, nil
}

func (s *CartService) GetCart(ctx context.Context, userID uint) ([]CartLine, float64, error) {
	cart, err := s.cartOf(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	var items []models.CartItem
	if err := s.DB.WithContext(ctx).Where("cart_id = ?", cart.ID).Order("added_at ASC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	lines := make([]CartLine, 0, len(items))
	var total float64
	for _, it := range items {
		var prod models.Product
		if err := s.DB.WithContext(ctx).First(&prod, it.ProductID).Error; err != nil {
			return nil, 0, err
		}
		lineTotal := float64(it.Quantity) * prod.Price
		total += lineTotal
		lines = append(lines, CartLine{Item: it, Product: prod, LineTotal: lineTotal})
	}
	return lines, total, nil
}

// AddItem increments the existing line for the product or inserts a new one.
// Stock is deliberately not checked here, only at order creation.
func (s *CartService) AddItem(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}

	cart, err := s.cartOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	var prod models.Product
	if err := s.DB.WithContext(ctx).First(&prod, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}

	var item models.CartItem
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item)
		if res.Error == nil {
			item.Quantity += quantity
			return tx.Save(&item).Error
		}
		if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return res.Error
		}
		item = models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, userID, map[string]interface{}{
		"type":       "cart_item_added",
		"user_id":    userID,
		"product_id": productID,
		"quantity":   item.Quantity,
	})

	return &item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) error {
	cart, err := s.cartOf(ctx, userID)
	if err != nil {
		return err
	}

	var item models.CartItem
	if err := s.DB.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: cart item %d", ErrNotFound, itemID)
		}
		return err
	}

	if err := s.DB.WithContext(ctx).Delete(&item).Error; err != nil {
		return err
	}

	s.publish(ctx, userID, map[string]interface{}{
		"type":    "cart_item_removed",
		"user_id": userID,
		"item_id": itemID,
	})

	return nil
}

func (s *CartService) publish(ctx context.Context, userID uint, event map[string]interface{}) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, events.TopicCartEvents, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", events.TopicCartEvents, "error", err)
	}
}
