package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/mossy/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single connection
	// serializes all DB access through Go's connection pool, preventing
	// "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = newULID()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM users WHERE name = ?`, name,
	).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by name: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Catalogs ---

func (s *SQLiteStore) LoadCatalog(ctx context.Context, userID string) (models.Catalog, error) {
	doc, err := s.LoadCatalogDocument(ctx, userID)
	if err != nil {
		return models.Catalog{}, err
	}
	return doc.Catalog(), nil
}

func (s *SQLiteStore) LoadCatalogDocument(ctx context.Context, userID string) (models.Document, error) {
	return loadDocument(ctx, s.db, userID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadDocument(ctx context.Context, q queryRower, userID string) (models.Document, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT document FROM catalogs WHERE user_id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return models.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return models.ParseDocument([]byte(raw)), nil
}

// SaveCatalog merges patch into the stored document and returns the result.
func (s *SQLiteStore) SaveCatalog(ctx context.Context, userID string, patch models.Document) (models.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := loadDocument(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	merged := current.Merge(patch)
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO catalogs (user_id, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("save catalog: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit catalog: %w", err)
	}
	return merged, nil
}

// --- Completions ---

func (s *SQLiteStore) LoadCompletions(ctx context.Context, userID, dayKey string) (models.DayCompletions, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, done FROM completions WHERE user_id = ? AND day_key = ?`, userID, dayKey)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	comps := models.DayCompletions{}
	for rows.Next() {
		var taskID string
		var done bool
		if err := rows.Scan(&taskID, &done); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		comps[taskID] = done
	}
	return comps, rows.Err()
}

// LoadCompletionRange returns completions for day keys in [fromKey, toKey].
func (s *SQLiteStore) LoadCompletionRange(ctx context.Context, userID, fromKey, toKey string) (models.CompletionMap, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day_key, task_id, done FROM completions
		WHERE user_id = ? AND day_key >= ? AND day_key <= ? ORDER BY day_key`, userID, fromKey, toKey)
	if err != nil {
		return nil, fmt.Errorf("load completion range: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := models.CompletionMap{}
	for rows.Next() {
		var dayKey, taskID string
		var done bool
		if err := rows.Scan(&dayKey, &taskID, &done); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		if out[dayKey] == nil {
			out[dayKey] = models.DayCompletions{}
		}
		out[dayKey][taskID] = done
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveCompletions(ctx context.Context, userID, dayKey string, comps models.DayCompletions) error {
	if len(comps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for taskID, done := range comps {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO completions (user_id, day_key, task_id, done, updated_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id, day_key, task_id) DO UPDATE SET done = excluded.done, updated_at = excluded.updated_at`,
			userID, dayKey, taskID, boolToInt(done), now,
		)
		if err != nil {
			return fmt.Errorf("save completion %s: %w", taskID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit completions: %w", err)
	}
	return nil
}
