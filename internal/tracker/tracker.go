// Package tracker wires the calendar, planner, scorer and streaks onto a store.
// The CLI, HTTP API and MCP server all go through it.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joescharf/mossy/internal/calendar"
	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/planner"
	"github.com/joescharf/mossy/internal/scoring"
	"github.com/joescharf/mossy/internal/store"
	"github.com/joescharf/mossy/internal/streaks"
)

// ErrUnknownTask is returned when a completion names a task that is not part
// of the day's plan.
var ErrUnknownTask = errors.New("unknown task")

// TodayKey selects the current app day wherever a day key is accepted.
const TodayKey = "today"

// Config holds the tunables of a Service.
type Config struct {
	Calendar calendar.Calendar
	Rules    scoring.Rules
	Streaks  streaks.Options
	Clock    calendar.Clock
}

// DefaultConfig is the home zone and default rules on the system clock.
func DefaultConfig() Config {
	return Config{
		Calendar: calendar.Default(),
		Rules:    scoring.DefaultRules(),
		Streaks:  streaks.DefaultOptions(),
		Clock:    calendar.SystemClock{},
	}
}

// Service implements the habit tracking use cases.
type Service struct {
	store   store.Store
	cal     calendar.Calendar
	clock   calendar.Clock
	planner *planner.Planner
	scorer  *scoring.Scorer
	agg     *streaks.Aggregator
	streaks streaks.Options
}

// New returns a Service over s.
func New(s store.Store, cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = calendar.SystemClock{}
	}
	p := planner.New(cfg.Calendar)
	sc := scoring.NewScorer(p, cfg.Rules)
	return &Service{
		store:   s,
		cal:     cfg.Calendar,
		clock:   cfg.Clock,
		planner: p,
		scorer:  sc,
		agg:     streaks.NewAggregator(sc),
		streaks: cfg.Streaks,
	}
}

// Calendar returns the service calendar.
func (s *Service) Calendar() calendar.Calendar { return s.cal }

// Store returns the underlying store.
func (s *Service) Store() store.Store { return s.store }

// Today returns the current app day.
func (s *Service) Today() time.Time { return s.cal.Today(s.clock) }

// ResolveDay parses a day key; "" and "today" mean the current app day.
func (s *Service) ResolveDay(key string) (time.Time, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.EqualFold(key, TodayKey) {
		return s.Today(), nil
	}
	return s.cal.ParseDayKey(key)
}

// ResolveUser finds a user by id, then by name.
func (s *Service) ResolveUser(ctx context.Context, ref string) (*models.User, error) {
	if ref == "" {
		return nil, fmt.Errorf("user not found: no user given")
	}
	if u, err := s.store.GetUser(ctx, ref); err == nil {
		return u, nil
	}
	return s.store.GetUserByName(ctx, ref)
}

// CreateUser registers a user, stamping the creation time from the service clock.
func (s *Service) CreateUser(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("user name is required")
	}
	u := &models.User{Name: name, CreatedAt: s.clock.Now().UTC()}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DayView is one materialized and scored day.
type DayView struct {
	DayKey      string                `json:"day"`
	Plan        planner.Plan          `json:"plan"`
	Completions models.DayCompletions `json:"completions"`
	Breakdown   *scoring.Breakdown    `json:"breakdown"`
	Band        scoring.Band          `json:"band"`
}

// Done reports whether a task of the view is checked.
func (v *DayView) Done(id string) bool { return v.Completions[id] }

// Day loads and scores one day of a user.
func (s *Service) Day(ctx context.Context, userID, dayKey string) (*DayView, error) {
	day, err := s.ResolveDay(dayKey)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.LoadCatalog(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := s.cal.DayKey(day)
	comps, err := s.store.LoadCompletions(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	return s.view(catalog, comps, day), nil
}

func (s *Service) view(c models.Catalog, comps models.DayCompletions, day time.Time) *DayView {
	plan := s.planner.MaterializeDay(c, day)
	b := s.scorer.ScorePlan(plan, comps)
	return &DayView{
		DayKey:      plan.DayKey,
		Plan:        plan,
		Completions: comps,
		Breakdown:   b,
		Band:        scoring.ProgressBand(b.Total),
	}
}

// Toggle sets the checked state of taskIDs on a day and returns the rescored day.
func (s *Service) Toggle(ctx context.Context, userID, dayKey string, taskIDs []string, done bool) (*DayView, error) {
	comps := models.DayCompletions{}
	for _, id := range taskIDs {
		comps[id] = done
	}
	return s.SetCompletions(ctx, userID, dayKey, comps)
}

// SetCompletions merges comps into a day. Every id must belong to the day's
// plan; nothing is written otherwise.
func (s *Service) SetCompletions(ctx context.Context, userID, dayKey string, comps models.DayCompletions) (*DayView, error) {
	day, err := s.ResolveDay(dayKey)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.LoadCatalog(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := s.cal.DayKey(day)
	plan := s.planner.MaterializeDay(catalog, day)
	for id := range comps {
		if _, ok := plan.Lookup(id); !ok {
			return nil, fmt.Errorf("%w %q on %s", ErrUnknownTask, id, key)
		}
	}

	if err := s.store.SaveCompletions(ctx, userID, key, comps); err != nil {
		return nil, err
	}
	current, err := s.store.LoadCompletions(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	return s.view(catalog, current, day), nil
}

// StreakOptions returns the configured streak options.
func (s *Service) StreakOptions() streaks.Options { return s.streaks }

// Streaks computes the user's streaks. Zero fields of override fall back to
// the configured options.
func (s *Service) Streaks(ctx context.Context, userID string, override streaks.Options) (streaks.Result, error) {
	opts := s.streaks
	if override.WindowDays > 0 {
		opts.WindowDays = override.WindowDays
	}
	if override.Threshold > 0 {
		opts.Threshold = override.Threshold
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = streaks.DefaultWindowDays
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return streaks.Result{}, err
	}
	opts.AccountCreated = u.CreatedAt

	catalog, comps, today, err := s.window(ctx, userID, opts.WindowDays)
	if err != nil {
		return streaks.Result{}, err
	}
	return s.agg.Streaks(catalog, comps, today, opts), nil
}

// History scores the last n days, oldest first.
func (s *Service) History(ctx context.Context, userID string, n int) ([]streaks.DayScore, error) {
	if n <= 0 {
		n = 7
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog, comps, today, err := s.window(ctx, userID, n)
	if err != nil {
		return nil, err
	}
	return s.agg.History(catalog, comps, today, n, u.CreatedAt), nil
}

func (s *Service) window(ctx context.Context, userID string, n int) (models.Catalog, models.CompletionMap, time.Time, error) {
	today := s.Today()
	catalog, err := s.store.LoadCatalog(ctx, userID)
	if err != nil {
		return models.Catalog{}, nil, today, err
	}
	from := s.cal.DayKey(s.cal.AddAppDays(today, -(n - 1)))
	comps, err := s.store.LoadCompletionRange(ctx, userID, from, s.cal.DayKey(today))
	if err != nil {
		return models.Catalog{}, nil, today, err
	}
	return catalog, comps, today, nil
}

// Catalog loads a user's catalog.
func (s *Service) Catalog(ctx context.Context, userID string) (models.Catalog, error) {
	return s.store.LoadCatalog(ctx, userID)
}

// UpdateCatalog applies fn to the user's catalog and saves every section.
func (s *Service) UpdateCatalog(ctx context.Context, userID string, fn func(*models.Catalog) error) (models.Catalog, error) {
	c, err := s.store.LoadCatalog(ctx, userID)
	if err != nil {
		return models.Catalog{}, err
	}
	if err := fn(&c); err != nil {
		return models.Catalog{}, err
	}
	doc, err := c.Document()
	if err != nil {
		return models.Catalog{}, fmt.Errorf("encode catalog: %w", err)
	}
	saved, err := s.store.SaveCatalog(ctx, userID, doc)
	if err != nil {
		return models.Catalog{}, err
	}
	return saved.Catalog(), nil
}
