package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	TopicUserEvents    = "user_events"
	TopicProductEvents = "product_events"
	TopicCartEvents    = "cart_events"
)

// Publisher delivers domain events. Delivery is best-effort: a failed publish
// is logged and never fails the request that caused it.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// Indexer mirrors catalog changes into a search index, best-effort.
type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, string, string, any) error { return nil }

type NopIndexer struct{}

func (NopIndexer) IndexProduct(context.Context, models.Product) error { return nil }
func (NopIndexer) DeleteProduct(context.Context, string) error        { return nil }

type Event struct {
	Type      string  `json:"type"`
	UserID    string  `json:"userID,omitempty"`
	Email     string  `json:"email,omitempty"`
	ProductID string  `json:"productID,omitempty"`
	ItemID    string  `json:"itemID,omitempty"`
	Name      string  `json:"name,omitempty"`
	Quantity  float64 `json:"quantity,omitempty"`
}

func publish(ctx context.Context, p Publisher, topic, key string, ev Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
