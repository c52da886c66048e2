package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/token"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Events *events.Memory

	Auth    *AuthHandler
	Product *ProductHandler
	Cart    *CartHandler
	Order   *OrderHandler
}

func newTestEnv(t *testing.T) *testEnv {
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

	mem := &events.Memory{}
	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	authSvc := &service.AuthService{DB: db, Producer: mem}
	catalogSvc := &service.CatalogService{DB: db, Producer: mem}
	cartSvc := &service.CartService{DB: db, Producer: mem}
	orderSvc := &service.OrderService{DB: db, Producer: mem}

	return &testEnv{
		T:       t,
		E:       echo.New(),
		DB:      db,
		Events:  mem,
		Auth:    &AuthHandler{Auth: authSvc, Tokens: tokens},
		Product: &ProductHandler{Catalog: catalogSvc, Orders: orderSvc, UploadDir: t.TempDir()},
		Cart:    &CartHandler{Cart: cartSvc},
		Order:   &OrderHandler{Orders: orderSvc},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser mimics what AutoRefreshMiddleware puts into the context.
func asUser(c echo.Context, user *models.User) {
	c.Set(token.ContextUserID, user.ID)
	c.Set(token.ContextRole, user.Role)
}

func (env *testEnv) registerBuyer(username string) *models.User {
	env.T.Helper()

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"role":             "buyer",
		"username":         username,
		"email":            username + "@example.com",
		"password":         "password",
		"password_confirm": "password",
	})
	require.NoError(env.T, env.Auth.Register(c))
	require.Equal(env.T, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &user))
	user.Role = models.RoleBuyer
	return &user
}

func (env *testEnv) registerSeller(shopName, email string) *models.User {
	env.T.Helper()

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"role":      "seller",
		"shop_name": shopName,
		"email":     email,
		"password":  "password",
	})
	require.NoError(env.T, env.Auth.Register(c))
	require.Equal(env.T, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &user))
	user.Role = models.RoleSeller
	return &user
}

func (env *testEnv) createProduct(seller *models.User, name string, price float64, quantity uint) *models.Product {
	env.T.Helper()

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/seller/products", map[string]interface{}{
		"name":         name,
		"description":  name + " description",
		"price":        price,
		"quantity":     quantity,
		"product_type": "misc",
	})
	asUser(c, seller)
	require.NoError(env.T, env.Product.CreateProduct(c))
	require.Equal(env.T, http.StatusCreated, rec.Code)

	var prod models.Product
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &prod))
	return &prod
}
