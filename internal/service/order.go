package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
)

type OrderService struct {
	DB       *gorm.DB
	Producer events.Publisher
}

// legal status transitions; anything else is a conflict.
var orderTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
}

// CreateOrder converts the caller's cart into an immutable order inside a
// single transaction. Stock is decremented with a guarded UPDATE
// (quantity >= wanted), so two concurrent orders for the last unit cannot
// both succeed: the loser's decrement touches zero rows and the whole
// order rolls back with ErrConflict.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, shippingAddress string) (*models.Order, error) {
	if strings.TrimSpace(shippingAddress) == "" {
		return nil, &FieldErrors{Fields: map[string]string{"shipping_address": "shipping address is required"}}
	}

	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: cart for user %d", ErrNotFound, userID)
			}
			return err
		}

		var items []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: cart is empty", ErrValidation)
		}

		var total float64
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND quantity >= ?", it.ProductID, it.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var p models.Product
				if err := tx.First(&p, it.ProductID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("%w: product %d no longer exists", ErrConflict, it.ProductID)
					}
					return err
				}
				return fmt.Errorf("%w: insufficient stock for %q (%d left, %d wanted)",
					ErrConflict, p.Name, p.Quantity, it.Quantity)
			}

			var p models.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				return err
			}

			total += float64(it.Quantity) * p.Price
			orderItems = append(orderItems, models.OrderItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     p.Price,
			})
		}

		order = models.Order{
			BuyerID:         userID,
			TotalAmount:     total,
			Status:          models.OrderStatusPending,
			ShippingAddress: strings.TrimSpace(shippingAddress),
			Items:           orderItems,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publish(ctx, userID, map[string]interface{}{
		"type":     "order_created",
		"user_id":  userID,
		"order_id": order.ID,
		"total":    order.TotalAmount,
	})

	return &order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND buyer_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus walks the pending, confirmed, shipped, delivered chain, with
// cancellation allowed until shipment. Buyers may only cancel their own
// pending orders; every other transition is admin territory. Cancelling
// puts the ordered quantities back in stock.
func (s *OrderService) UpdateStatus(ctx context.Context, userID uint, role string, orderID uint, newStatus string) (*models.Order, error) {
	var order models.Order

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Preload("Items")
		if role != models.RoleAdmin {
			q = q.Where("buyer_id = ?", userID)
		}
		if err := q.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		if role != models.RoleAdmin {
			if newStatus != models.OrderStatusCancelled {
				return fmt.Errorf("%w: only admins change order status", ErrForbidden)
			}
			if order.Status != models.OrderStatusPending {
				return fmt.Errorf("%w: only pending orders can be cancelled", ErrConflict)
			}
		}

		if !transitionAllowed(order.Status, newStatus) {
			return fmt.Errorf("%w: cannot move order from %s to %s", ErrConflict, order.Status, newStatus)
		}

		if newStatus == models.OrderStatusCancelled {
			for _, it := range order.Items {
				err := tx.Model(&models.Product{}).
					Where("id = ?", it.ProductID).
					Update("quantity", gorm.Expr("quantity + ?", it.Quantity)).Error
				if err != nil {
					return err
				}
			}
		}

		order.Status = newStatus
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", newStatus).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publish(ctx, userID, map[string]interface{}{
		"type":     "order_status_changed",
		"order_id": order.ID,
		"status":   order.Status,
	})

	return &order, nil
}

func transitionAllowed(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SaleRow is one sold line of a seller's product, for the sales dashboard.
type SaleRow struct {
	OrderID     uint    `json:"order_id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    uint    `json:"quantity"`
	Price       float64 `json:"price"`
	Status      string  `json:"status"`
}

func (s *OrderService) SellerSales(ctx context.Context, sellerID uint) ([]SaleRow, float64, error) {
	var rows []SaleRow
	err := s.DB.WithContext(ctx).
		Table("order_items").
		Select("order_items.order_id, order_items.product_id, products.name AS product_name, order_items.quantity, order_items.price, orders.status").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("products.seller_id = ? AND orders.status <> ?", sellerID, models.OrderStatusCancelled).
		Order("order_items.order_id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	var revenue float64
	for _, r := range rows {
		revenue += float64(r.Quantity) * r.Price
	}
	return rows, revenue, nil
}

func (s *OrderService) publish(ctx context.Context, userID uint, event map[string]interface{}) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, events.TopicOrderEvents, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", events.TopicOrderEvents, "error", err)
	}
}
