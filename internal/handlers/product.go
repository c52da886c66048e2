package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/token"
	"github.com/Skotchmaster/marketplace/internal/util"
)

type ProductHandler struct {
	Catalog   *service.CatalogService
	Orders    *service.OrderService
	UploadDir string
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	sellerID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Catalog.CreateProduct(c.Request().Context(), sellerID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, prod)
}

// ListSellerProducts returns only the caller's products plus the inventory
// aggregates shown on the seller dashboard.
func (h *ProductHandler) ListSellerProducts(c echo.Context) error {
	sellerID, err := token.UserID(c)
	if err != nil {
		return err
	}

	products, summary, err := h.Catalog.ListSellerProducts(c.Request().Context(), sellerID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"products":       products,
		"total_quantity": summary.TotalQuantity,
		"total_value":    summary.TotalValue,
	})
}

// SellerDashboard combines the inventory aggregates with the sales rows.
func (h *ProductHandler) SellerDashboard(c echo.Context) error {
	sellerID, err := token.UserID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	products, summary, err := h.Catalog.ListSellerProducts(ctx, sellerID)
	if err != nil {
		return httpError(err)
	}
	sales, revenue, err := h.Orders.SellerSales(ctx, sellerID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"products":       products,
		"total_quantity": summary.TotalQuantity,
		"total_value":    summary.TotalValue,
		"sales":          sales,
		"revenue":        revenue,
	})
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	sellerID, err := token.UserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Catalog.UpdateProduct(c.Request().Context(), sellerID, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	sellerID, err := token.UserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Catalog.DeleteProduct(c.Request().Context(), sellerID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage stores the multipart file under the upload dir with a UUID
// name and records the path on the product.
func (h *ProductHandler) UploadImage(c echo.Context) error {
	sellerID, err := token.UserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file missing")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read image")
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store image")
	}

	name := uuid.New().String() + filepath.Ext(fileHeader.Filename)
	path := filepath.Join(h.UploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store image")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot store image")
	}

	prod, err := h.Catalog.SetProductImage(c.Request().Context(), sellerID, id, path)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	prod, err := h.Catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	ctx := c.Request().Context()

	total, products, err := h.Catalog.ListProducts(ctx, offset, limit)
	if err != nil {
		return httpError(err)
	}

	types, err := h.Catalog.ProductTypes(ctx)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":  products,
		"types": types,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}
