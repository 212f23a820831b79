package store

import (
	"context"

	"github.com/joescharf/mossy/internal/models"
)

// Store defines the persistence interface for mossy.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Catalogs. Missing documents load as empty; saves merge top-level keys
	// and a null value removes a key.
	LoadCatalog(ctx context.Context, userID string) (models.Catalog, error)
	LoadCatalogDocument(ctx context.Context, userID string) (models.Document, error)
	SaveCatalog(ctx context.Context, userID string, patch models.Document) (models.Document, error)

	// Completions. Saves upsert each task and leave other tasks of the day
	// untouched, so replaying a save is harmless.
	LoadCompletions(ctx context.Context, userID, dayKey string) (models.DayCompletions, error)
	LoadCompletionRange(ctx context.Context, userID, fromKey, toKey string) (models.CompletionMap, error)
	SaveCompletions(ctx context.Context, userID, dayKey string, comps models.DayCompletions) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
