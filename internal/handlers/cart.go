package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/token"
)

type CartHandler struct {
	Cart *service.CartService
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	lines, total, err := h.Cart.GetCart(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": lines,
		"total": total,
	})
}

// AddToCart responds with the success-flag shape clients poll from the
// storefront widget.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Cart.AddItem(c.Request().Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "product added to cart",
		"item":    item,
	})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Cart.RemoveItem(c.Request().Context(), userID, itemID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
