package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CartService struct {
	Repo    *repo.GormRepo
	Catalog *CatalogService
	Events  Publisher
}

var leadingDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseQuantity reads the longest leading decimal number, ignoring leading
// whitespace and any trailing text: "2 items" is 2, "1_0" is 1 and "0x1p1"
// is 0. The result must be finite and greater than zero.
func ParseQuantity(raw string) (float64, error) {
	num := leadingDecimal.FindString(strings.TrimLeftFunc(raw, unicode.IsSpace))
	if num == "" {
		return 0, fmt.Errorf("invalid quantity %q: %w", raw, ErrValidation)
	}
	q, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(q, 0) || q <= 0 {
		return 0, fmt.Errorf("invalid quantity %q: %w", raw, ErrValidation)
	}
	return q, nil
}

// AddToCart always inserts a new row holding a snapshot of the product as it
// is right now.
func (s *CartService) AddToCart(ctx context.Context, productID, email, quantity string) (*models.CartItem, error) {
	q, err := ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrValidation)
	}

	prod, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	item := models.NewCartItem(*prod, email, q)
	if err := s.Repo.AddCartItem(ctx, &item); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicCartEvents, email, Event{
		Type:      "cart_item_added",
		Email:     email,
		ItemID:    item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	})
	return &item, nil
}

func (s *CartService) GetCart(ctx context.Context, email string) ([]models.CartItem, error) {
	return s.Repo.GetCart(ctx, email)
}

func (s *CartService) RemoveCartItem(ctx context.Context, itemID string) error {
	if err := s.Repo.DeleteCartItem(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return err
	}

	publish(ctx, s.Events, TopicCartEvents, itemID, Event{Type: "cart_item_removed", ItemID: itemID})
	return nil
}
