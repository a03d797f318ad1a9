package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := event.(Event)
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: ev})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.Type)
	}
	return out
}

type recordingIndexer struct {
	mu      sync.Mutex
	indexed map[string]models.Product
	deleted []string
}

func (i *recordingIndexer) IndexProduct(_ context.Context, p models.Product) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.indexed == nil {
		i.indexed = map[string]models.Product{}
	}
	i.indexed[p.ID] = p
	return nil
}

func (i *recordingIndexer) DeleteProduct(_ context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.deleted = append(i.deleted, id)
	return errors.New("index unavailable")
}

type fixture struct {
	repo    *repo.GormRepo
	events  *recordingPublisher
	indexer *recordingIndexer
	users   *UserService
	catalog *CatalogService
	cart    *CartService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	f := &fixture{
		repo:    repo.New(gdb),
		events:  &recordingPublisher{},
		indexer: &recordingIndexer{},
	}
	f.users = &UserService{Repo: f.repo, Events: f.events}
	f.catalog = &CatalogService{Repo: f.repo, Events: f.events, Indexer: f.indexer}
	f.cart = &CartService{Repo: f.repo, Catalog: f.catalog, Events: f.events}
	return f
}

func ptr[T any](v T) *T { return &v }
