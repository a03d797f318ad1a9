package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CatalogService struct {
	Repo    *repo.GormRepo
	Events  Publisher
	Indexer Indexer
}

// CreateProduct stores the body as given. Unlike UpdateProduct it does not
// require name, price or description.
func (s *CatalogService) CreateProduct(ctx context.Context, prod models.Product) (*models.Product, error) {
	prod.ID = ""
	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		return nil, err
	}

	s.index(ctx, prod)
	publish(ctx, s.Events, TopicProductEvents, prod.ID, Event{Type: "product_created", ProductID: prod.ID, Name: prod.Name})
	return &prod, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, search string) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx, search)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return prod, nil
}

func validatePatch(p transport.ProductPatch) error {
	if p.Name == nil || *p.Name == "" {
		return fmt.Errorf("name is required: %w", ErrValidation)
	}
	if p.Price == nil || math.IsNaN(*p.Price) || *p.Price <= 0 {
		return fmt.Errorf("price must be positive: %w", ErrValidation)
	}
	if p.Description == nil || *p.Description == "" {
		return fmt.Errorf("description is required: %w", ErrValidation)
	}
	return nil
}

// UpdateProduct replaces name, price and description and merges any other
// fields of the patch into the stored attributes. Attributes the patch does
// not mention are left untouched.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch transport.ProductPatch) (*models.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	updated, err := s.Repo.UpdateProduct(ctx, id, &models.Product{
		Name:        *patch.Name,
		Price:       patch.Price,
		Description: *patch.Description,
		Attributes:  patch.Attributes,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	s.index(ctx, *updated)
	publish(ctx, s.Events, TopicProductEvents, id, Event{Type: "product_updated", ProductID: id, Name: updated.Name})
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return err
	}

	if s.Indexer != nil {
		if err := s.Indexer.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_unindex_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, TopicProductEvents, id, Event{Type: "product_deleted", ProductID: id})
	return nil
}

func (s *CatalogService) index(ctx context.Context, prod models.Product) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProduct(ctx, prod); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", prod.ID, "error", err)
	}
}
