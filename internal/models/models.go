package models

import (
	"time"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"not null"                 json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:buyer"   json:"role"`
}

type SellerProfile struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null"     json:"user_id"`
	ShopName   string    `gorm:"not null"                 json:"shop_name"`
	IsSeller   bool      `gorm:"default:true"             json:"is_seller"`
	IsCustomer bool      `gorm:"default:false"            json:"is_customer"`
	CreatedAt  time.Time `gorm:"autoCreateTime"           json:"created_at"`
}

type Product struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	SellerID     uint      `gorm:"index;not null"                json:"seller_id"`
	Name         string    `gorm:"not null"                      json:"name"`
	Description  string    `gorm:"not null"                      json:"description"`
	Price        float64   `gorm:"not null"                      json:"price"`
	Quantity     uint      `gorm:"not null;default:0"            json:"quantity"`
	ProductType  string    `gorm:"not null"                      json:"product_type"`
	Image        string    `json:"image"`
	ReturnPolicy string    `json:"return_policy"`
	IsAvailable  bool      `gorm:"default:true"                  json:"is_available"`
	CreatedAt    time.Time `gorm:"autoCreateTime"                json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"                json:"updated_at"`
}

type Cart struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null"     json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime"           json:"created_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                   json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_product"      json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_product"      json:"product_id"`
	Quantity  uint      `gorm:"default:1;check:quantity>0"                 json:"quantity"`
	AddedAt   time.Time `gorm:"autoCreateTime"                             json:"added_at"`
}

type Order struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID         uint        `gorm:"index;not null"           json:"buyer_id"`
	TotalAmount     float64     `gorm:"not null"                 json:"total_amount"`
	Status          string      `gorm:"not null;default:pending" json:"status"`
	ShippingAddress string      `gorm:"not null"                 json:"shipping_address"`
	CreatedAt       time.Time   `gorm:"autoCreateTime"           json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime"           json:"updated_at"`
	Items           []OrderItem `gorm:"foreignKey:OrderID"       json:"items,omitempty"`
}

// OrderItem snapshots quantity and unit price at order time, so later
// product price edits never change a placed order.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"   json:"id"`
	OrderID   uint    `gorm:"index;not null"             json:"order_id"`
	ProductID uint    `gorm:"not null"                   json:"product_id"`
	Quantity  uint    `gorm:"default:1;check:quantity>0" json:"quantity"`
	Price     float64 `gorm:"not null"                   json:"price"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
