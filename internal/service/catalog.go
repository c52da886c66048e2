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

// ProductIndexer keeps the search index in sync with catalog writes.
// Indexing failures never fail the request, they are only logged.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type CatalogService struct {
	DB       *gorm.DB
	Producer events.Publisher
	Indexer  ProductIndexer
}

type ProductInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Quantity     uint    `json:"quantity"`
	ProductType  string  `json:"product_type"`
	ReturnPolicy string  `json:"return_policy"`
	IsAvailable  *bool   `json:"is_available"`
}

// InventorySummary aggregates a seller's stock for the dashboard.
type InventorySummary struct {
	TotalQuantity uint    `json:"total_quantity"`
	TotalValue    float64 `json:"total_value"`
}

func (in *ProductInput) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "name is required"
	}
	if in.Price < 0 {
		fields["price"] = "price must not be negative"
	}
	if strings.TrimSpace(in.ProductType) == "" {
		fields["product_type"] = "product type is required"
	}
	if len(fields) > 0 {
		return &FieldErrors{Fields: fields}
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, sellerID uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	prod := models.Product{
		SellerID:     sellerID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Price:        in.Price,
		Quantity:     in.Quantity,
		ProductType:  strings.TrimSpace(in.ProductType),
		ReturnPolicy: in.ReturnPolicy,
		IsAvailable:  true,
	}
	if in.IsAvailable != nil {
		prod.IsAvailable = *in.IsAvailable
	}

	if err := s.DB.WithContext(ctx).Create(&prod).Error; err != nil {
		return nil, err
	}

	s.index(ctx, &prod)
	s.publish(ctx, sellerID, map[string]interface{}{
		"type":       "product_created",
		"product_id": prod.ID,
		"seller_id":  sellerID,
		"name":       prod.Name,
	})

	return &prod, nil
}

// GetSellerProduct is owner-filtered at the query, so another seller's
// product is indistinguishable from a missing one.
func (s *CatalogService) GetSellerProduct(ctx context.Context, sellerID, productID uint) (*models.Product, error) {
	var prod models.Product
	err := s.DB.WithContext(ctx).
		Where("id = ? AND seller_id = ?", productID, sellerID).
		First(&prod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}
	return &prod, nil
}

func (s *CatalogService) ListSellerProducts(ctx context.Context, sellerID uint) ([]models.Product, *InventorySummary, error) {
	var products []models.Product
	err := s.DB.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, nil, err
	}

	summary := &InventorySummary{}
	for _, p := range products {
		summary.TotalQuantity += p.Quantity
		summary.TotalValue += p.Price * float64(p.Quantity)
	}
	return products, summary, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, sellerID, productID uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	prod, err := s.GetSellerProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	prod.Name = strings.TrimSpace(in.Name)
	prod.Description = in.Description
	prod.Price = in.Price
	prod.Quantity = in.Quantity
	prod.ProductType = strings.TrimSpace(in.ProductType)
	prod.ReturnPolicy = in.ReturnPolicy
	if in.IsAvailable != nil {
		prod.IsAvailable = *in.IsAvailable
	}

	if err := s.DB.WithContext(ctx).Save(prod).Error; err != nil {
		return nil, err
	}

	s.index(ctx, prod)
	s.publish(ctx, sellerID, map[string]interface{}{
		"type":       "product_updated",
		"product_id": prod.ID,
		"seller_id":  sellerID,
		"name":       prod.Name,
	})

	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, sellerID, productID uint) error {
	prod, err := s.GetSellerProduct(ctx, sellerID, productID)
	if err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Delete(prod).Error; err != nil {
		return err
	}

	if s.Indexer != nil {
		if err := s.Indexer.DeleteProduct(ctx, prod.ID); err != nil {
			logging.FromContext(ctx).Error("search index delete error", "product_id", prod.ID, "error", err)
		}
	}
	s.publish(ctx, sellerID, map[string]interface{}{
		"type":       "product_deleted",
		"product_id": prod.ID,
		"seller_id":  sellerID,
	})

	return nil
}

func (s *CatalogService) SetProductImage(ctx context.Context, sellerID, productID uint, path string) (*models.Product, error) {
	prod, err := s.GetSellerProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	prod.Image = path
	if err := s.DB.WithContext(ctx).Save(prod).Error; err != nil {
		return nil, err
	}

	s.index(ctx, prod)
	return prod, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID uint) (*models.Product, error) {
	var prod models.Product
	if err := s.DB.WithContext(ctx).First(&prod, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}
	return &prod, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	q := s.DB.WithContext(ctx).Model(&models.Product{}).Where("is_available = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var products []models.Product
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return 0, nil, err
	}
	return total, products, nil
}

// ProductTypes lists the distinct types across available products, for the
// storefront category strip.
func (s *CatalogService) ProductTypes(ctx context.Context) ([]string, error) {
	var types []string
	err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("is_available = ?", true).
		Distinct("product_type").
		Order("product_type ASC").
		Pluck("product_type", &types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (s *CatalogService) index(ctx context.Context, prod *models.Product) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProduct(ctx, prod); err != nil {
		logging.FromContext(ctx).Error("search index error", "product_id", prod.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, sellerID uint, event map[string]interface{}) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, events.TopicProductEvents, fmt.Sprint(sellerID), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "topic", events.TopicProductEvents, "error", err)
	}
}
