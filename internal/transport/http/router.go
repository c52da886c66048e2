package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/handlers"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/token"
)

type Deps struct {
	DB             *gorm.DB
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	CartHandler    *handlers.CartHandler
	OrderHandler   *handlers.OrderHandler
	SearchHandler  *handlers.SearchHandler
	TokenService   *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)

	v1.GET("/products", d.ProductHandler.GetProducts)
	v1.GET("/products/:id", d.ProductHandler.GetProduct)
	v1.GET("/search", d.SearchHandler.Search)

	authed := v1.Group("", d.TokenService.AutoRefreshMiddleware)

	authed.GET("/cart", d.CartHandler.GetCart)
	authed.POST("/cart", d.CartHandler.AddToCart)
	authed.DELETE("/cart/:id", d.CartHandler.RemoveFromCart)

	authed.POST("/orders", d.OrderHandler.CreateOrder)
	authed.GET("/orders", d.OrderHandler.ListOrders)
	authed.GET("/orders/:id", d.OrderHandler.GetOrder)
	authed.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)

	seller := v1.Group("/seller", d.TokenService.AutoRefreshMiddleware, token.RequireRole(models.RoleSeller))

	seller.GET("/dashboard", d.ProductHandler.SellerDashboard)
	seller.GET("/sales", d.OrderHandler.SellerSales)
	seller.POST("/products", d.ProductHandler.CreateProduct)
	seller.GET("/products", d.ProductHandler.ListSellerProducts)
	seller.PATCH("/products/:id", d.ProductHandler.UpdateProduct)
	seller.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	seller.POST("/products/:id/image", d.ProductHandler.UploadImage)
}
