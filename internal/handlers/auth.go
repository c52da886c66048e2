package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/token"
)

type AuthHandler struct {
	Auth   *service.AuthService
	Tokens *token.TokenService
}

type registerRequest struct {
	Role string `json:"role"`

	// buyer fields
	Username        string `json:"username"`
	PasswordConfirm string `json:"password_confirm"`

	// seller fields
	ShopName string `json:"shop_name"`

	// shared
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles both flows behind one endpoint, switched on the role
// selector: buyers bring a username, sellers bring a shop name and get a
// derived one.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()

	var (
		user *models.User
		err  error
	)
	switch req.Role {
	case models.RoleSeller:
		user, err = h.Auth.RegisterSeller(ctx, service.RegisterSellerInput{
			ShopName: req.ShopName,
			Email:    req.Email,
			Password: req.Password,
		})
	case "", models.RoleBuyer:
		user, err = h.Auth.RegisterBuyer(ctx, service.RegisterBuyerInput{
			Username:        req.Username,
			Email:           req.Email,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
		})
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "role must be buyer or seller")
	}
	if err != nil {
		return httpError(err)
	}

	if err := h.setAuthCookies(c, user); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Auth.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	if err := h.setAuthCookies(c, user); err != nil {
		return httpError(err)
	}

	// clients route to the buyer or seller dashboard off the role
	return c.JSON(http.StatusOK, echo.Map{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	refreshCookie, err := c.Cookie(token.RefreshCookie)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token missing")
	}

	if err := h.Tokens.RevokeRefresh(refreshCookie.Value); err != nil {
		return httpError(err)
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(token.CreateCookie(token.AccessCookie, "", "/", expired))
	c.SetCookie(token.CreateCookie(token.RefreshCookie, "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) setAuthCookies(c echo.Context, user *models.User) error {
	access, refresh, err := h.Tokens.IssueTokens(user)
	if err != nil {
		return err
	}
	c.SetCookie(token.CreateCookie(token.AccessCookie, access, "/", time.Now().Add(token.AccessTokenTTL)))
	c.SetCookie(token.CreateCookie(token.RefreshCookie, refresh, "/", time.Now().Add(token.RefreshTokenTTL)))
	return nil
}
