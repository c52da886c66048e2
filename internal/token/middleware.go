package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/models"
)

const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// AutoRefreshMiddleware authenticates the request from the access cookie,
// transparently rotating an expired access token through the stored refresh
// token. The authenticated identity lands in the echo context under
// ContextUserID/ContextRole.
func (t *TokenService) AutoRefreshMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		asCookie, err := c.Cookie(AccessCookie)
		if err == nil {
			parsed, err := jwt.Parse(asCookie.Value, func(j *jwt.Token) (interface{}, error) {
				if _, ok := j.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return t.JWTSecret, nil
			})
			if err == nil && parsed.Valid {
				setUserContext(c, parsed.Claims.(jwt.MapClaims))
				return next(c)
			}
			if !errors.Is(err, jwt.ErrTokenExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
		}

		rfCookie, err := c.Cookie(RefreshCookie)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}
		newAccess, newRefresh, err := t.RotateToken(rfCookie.Value)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "cannot rotate token: "+err.Error())
		}

		c.SetCookie(CreateCookie(AccessCookie, newAccess, "/", time.Now().Add(AccessTokenTTL)))
		c.SetCookie(CreateCookie(RefreshCookie, newRefresh, "/", time.Now().Add(RefreshTokenTTL)))

		parsed, err := jwt.Parse(newAccess, func(j *jwt.Token) (interface{}, error) { return t.JWTSecret, nil })
		if err != nil || !parsed.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		setUserContext(c, parsed.Claims.(jwt.MapClaims))
		return next(c)
	}
}

// RequireRole gates a route group to one role. Admins pass everywhere.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got, ok := c.Get(ContextRole).(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if got != role && got != models.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

func setUserContext(c echo.Context, claims jwt.MapClaims) {
	if sub, ok := claims["sub"].(float64); ok {
		c.Set(ContextUserID, uint(sub))
	}
	if role, ok := claims["role"].(string); ok {
		c.Set(ContextRole, role)
	}
}

// UserID extracts the authenticated user set by AutoRefreshMiddleware.
func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get(ContextUserID).(uint)
	if !ok || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}

func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}
