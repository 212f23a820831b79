// Package cache keeps catalogs and day completions in memory in front of a
// store.Store. It is an explicit value, so each server or command owns its own.
package cache

import (
	"context"
	"maps"
	"sync"

	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/store"
)

type dayKey struct {
	userID string
	day    string
}

// Cache is a read-through, write-through cache. It implements store.Store and
// is safe for concurrent use.
type Cache struct {
	store.Store

	mu       sync.RWMutex
	catalogs map[string]models.Document
	days     map[dayKey]models.DayCompletions
}

var _ store.Store = (*Cache)(nil)

// New wraps s.
func New(s store.Store) *Cache {
	return &Cache{
		Store:    s,
		catalogs: make(map[string]models.Document),
		days:     make(map[dayKey]models.DayCompletions),
	}
}

// LoadCatalogDocument returns the cached document, loading it on a miss.
func (c *Cache) LoadCatalogDocument(ctx context.Context, userID string) (models.Document, error) {
	c.mu.RLock()
	doc, ok := c.catalogs[userID]
	c.mu.RUnlock()
	if ok {
		return maps.Clone(doc), nil
	}

	doc, err := c.Store.LoadCatalogDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.catalogs[userID] = doc
	c.mu.Unlock()
	return maps.Clone(doc), nil
}

// LoadCatalog decodes the cached document.
func (c *Cache) LoadCatalog(ctx context.Context, userID string) (models.Catalog, error) {
	doc, err := c.LoadCatalogDocument(ctx, userID)
	if err != nil {
		return models.Catalog{}, err
	}
	return doc.Catalog(), nil
}

// SaveCatalog writes through and caches the merged document.
func (c *Cache) SaveCatalog(ctx context.Context, userID string, patch models.Document) (models.Document, error) {
	merged, err := c.Store.SaveCatalog(ctx, userID, patch)
	if err != nil {
		c.Invalidate(userID)
		return nil, err
	}
	c.mu.Lock()
	c.catalogs[userID] = merged
	c.mu.Unlock()
	return maps.Clone(merged), nil
}

// LoadCompletions returns the cached completions of one day.
func (c *Cache) LoadCompletions(ctx context.Context, userID, day string) (models.DayCompletions, error) {
	k := dayKey{userID, day}
	c.mu.RLock()
	comps, ok := c.days[k]
	c.mu.RUnlock()
	if ok {
		return maps.Clone(comps), nil
	}

	comps, err := c.Store.LoadCompletions(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.days[k] = comps
	c.mu.Unlock()
	return maps.Clone(comps), nil
}

// LoadCompletionRange reads from the store and refreshes the cached days it returns.
func (c *Cache) LoadCompletionRange(ctx context.Context, userID, fromKey, toKey string) (models.CompletionMap, error) {
	m, err := c.Store.LoadCompletionRange(ctx, userID, fromKey, toKey)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for day, comps := range m {
		c.days[dayKey{userID, day}] = maps.Clone(comps)
	}
	c.mu.Unlock()
	return m, nil
}

// SaveCompletions writes through, then merges the change into the cached day.
func (c *Cache) SaveCompletions(ctx context.Context, userID, day string, comps models.DayCompletions) error {
	k := dayKey{userID, day}
	if err := c.Store.SaveCompletions(ctx, userID, day, comps); err != nil {
		c.mu.Lock()
		delete(c.days, k)
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	if cached, ok := c.days[k]; ok {
		merged := maps.Clone(cached)
		maps.Copy(merged, comps)
		c.days[k] = merged
	}
	c.mu.Unlock()
	return nil
}

// Invalidate drops everything cached for userID.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.catalogs, userID)
	for k := range c.days {
		if k.userID == userID {
			delete(c.days, k)
		}
	}
}

// Len reports how many catalogs and days are cached.
func (c *Cache) Len() (catalogs, days int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.catalogs), len(c.days)
}
