package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"recipe-catalog/internal/config"
	"recipe-catalog/internal/mealplan"
	"recipe-catalog/internal/metrics"
	"recipe-catalog/internal/recipe"
	"recipe-catalog/internal/session"
	"recipe-catalog/internal/view"
)

// App holds the application's dependencies. Front ends reach sessions only
// through its methods.
type App struct {
	catalog      *recipe.Catalog
	sessions     *session.Repository
	metrics      *metrics.Metrics
	popularLimit int
	dataPath     string
	started      time.Time
}

// Options tune an App.
type Options struct {
	// PopularLimit caps the home tab; 0 shows the whole catalog.
	PopularLimit int
	// DataPath is reported in health output when the catalog lives on disk.
	DataPath string
}

// NewApp creates and initializes a new App instance.
func NewApp(catalog *recipe.Catalog, sessions *session.Repository, m *metrics.Metrics, opts Options) *App {
	if m == nil {
		m = metrics.NewMetrics()
	}
	m.CatalogRecipes.Set(float64(catalog.Len()))
	return &App{
		catalog:      catalog,
		sessions:     sessions,
		metrics:      m,
		popularLimit: opts.PopularLimit,
		dataPath:     opts.DataPath,
		started:      time.Now(),
	}
}

// Catalog returns the loaded catalog.
func (a *App) Catalog() *recipe.Catalog { return a.catalog }

// Metrics returns the metrics the App records to.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Location returns the time zone calendar days are computed in.
func (a *App) Location() *time.Location { return a.sessions.Location() }

// NewSession starts a fresh logged-out session.
func (a *App) NewSession(ctx context.Context) (session.Session, error) {
	s, err := a.sessions.Create(ctx)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	a.metrics.ActiveSessions.Set(float64(a.sessions.Len()))
	slog.Debug("Session created", "session", s.ID)
	return s, nil
}

// Session returns a snapshot of a live session.
func (a *App) Session(ctx context.Context, id string) (session.Session, error) {
	return a.sessions.GetActive(ctx, id)
}

// EnsureSession returns the session with a caller-chosen id, creating it
// when missing. Chat front ends key sessions by conversation.
func (a *App) EnsureSession(ctx context.Context, id string) (session.Session, error) {
	s, created, err := a.sessions.GetOrCreate(ctx, id)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if created {
		a.metrics.ActiveSessions.Set(float64(a.sessions.Len()))
		slog.Debug("Session created", "session", id)
	}
	return s, nil
}

// Login authenticates the session.
func (a *App) Login(ctx context.Context, id string, c session.Credentials) (session.Session, error) {
	return a.do(ctx, "login", id, func(s *session.Session) error {
		return s.Login(c)
	})
}

// Register authenticates the session and records the user's name.
func (a *App) Register(ctx context.Context, id string, r session.Registration) (session.Session, error) {
	return a.do(ctx, "register", id, func(s *session.Session) error {
		return s.Register(r)
	})
}

// Logout clears authentication and keeps the active tab.
func (a *App) Logout(ctx context.Context, id string) (session.Session, error) {
	return a.do(ctx, "logout", id, func(s *session.Session) error {
		s.Logout()
		return nil
	})
}

// SetTab switches the active tab by name.
func (a *App) SetTab(ctx context.Context, id, name string) (session.Session, error) {
	return a.do(ctx, "set_tab", id, func(s *session.Session) error {
		t, err := session.ParseTab(name)
		if err != nil {
			return err
		}
		s.SetActiveTab(t)
		return nil
	})
}

// SelectDate changes the planner day. day is formatted as YYYY-MM-DD.
func (a *App) SelectDate(ctx context.Context, id, day string) (session.Session, error) {
	return a.do(ctx, "select_date", id, func(s *session.Session) error {
		d, err := mealplan.ParseDay(day, a.Location())
		if err != nil {
			return err
		}
		s.SelectDate(d)
		return nil
	})
}

// SlotEdit names one planner entry.
type SlotEdit struct {
	Day      string
	Meal     string
	RecipeID int
}

func (a *App) parseEdit(e SlotEdit) (time.Time, mealplan.MealTime, error) {
	d, err := mealplan.ParseDay(e.Day, a.Location())
	if err != nil {
		return time.Time{}, "", err
	}
	m, err := mealplan.ParseMealTime(e.Meal)
	if err != nil {
		return time.Time{}, "", err
	}
	return d, m, nil
}

// AddToSlot plans a catalog recipe. The session must be logged in and the
// recipe must exist in the catalog; login is checked before the input.
func (a *App) AddToSlot(ctx context.Context, id string, e SlotEdit) (session.Session, error) {
	return a.do(ctx, "add_to_slot", id, func(s *session.Session) error {
		if err := s.CanEdit(); err != nil {
			return err
		}
		d, m, err := a.parseEdit(e)
		if err != nil {
			return err
		}
		rec, err := a.catalog.Get(e.RecipeID)
		if err != nil {
			return err
		}
		return s.AddToSlot(d, m, rec)
	})
}

// RemoveFromSlot removes one planned entry. Removing an absent entry succeeds.
func (a *App) RemoveFromSlot(ctx context.Context, id string, e SlotEdit) (session.Session, error) {
	return a.do(ctx, "remove_from_slot", id, func(s *session.Session) error {
		if err := s.CanEdit(); err != nil {
			return err
		}
		d, m, err := a.parseEdit(e)
		if err != nil {
			return err
		}
		return s.RemoveFromSlot(d, m, e.RecipeID)
	})
}

// View computes the active tab of the session.
func (a *App) View(ctx context.Context, id string, f recipe.Filter) (view.Result, session.Session, error) {
	s, err := a.viewSession(ctx, id)
	if err != nil {
		return view.Result{}, session.Session{}, err
	}
	res := view.Select(view.Input{
		Tab:          s.ActiveTab,
		LoggedIn:     s.IsLoggedIn,
		Catalog:      a.catalog,
		MealPlan:     s.MealPlan,
		SelectedDate: s.SelectedDate,
		Filter:       f,
		PopularLimit: a.popularLimit,
	})
	a.metrics.RecordView(string(res.Tab), string(res.State))
	return res, s, nil
}

// viewSession resolves the session a read renders from. An empty id reads
// as a guest that is never stored.
func (a *App) viewSession(ctx context.Context, id string) (session.Session, error) {
	if id == "" {
		if err := ctx.Err(); err != nil {
			return session.Session{}, err
		}
		return a.sessions.Guest(), nil
	}
	return a.sessions.GetActive(ctx, id)
}

// CleanupExpired drops expired sessions.
func (a *App) CleanupExpired(ctx context.Context) (int, error) {
	n, err := a.sessions.CleanupExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	a.metrics.ActiveSessions.Set(float64(a.sessions.Len()))
	if n > 0 {
		slog.Info("Expired sessions removed", "count", n)
	}
	return n, nil
}

// RunCleanup calls CleanupExpired every interval until ctx is done.
// A non-positive interval disables the loop.
func (a *App) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Warn("Session cleanup disabled", "interval", interval)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Session cleanup failed", "error", err)
			}
		}
	}
}

// Health samples runtime health and mirrors it into the metrics.
func (a *App) Health() metrics.SysHealth {
	h := metrics.GetSysHealth(a.started, a.catalog.Len(), a.sessions.Len(), a.dataPath)
	a.metrics.RecordHealth(h)
	return h
}

func (a *App) do(ctx context.Context, action, id string, fn func(*session.Session) error) (session.Session, error) {
	s, err := a.sessions.Update(ctx, id, fn)
	outcome := Outcome(err)
	a.metrics.RecordAction(action, outcome)
	if err != nil {
		if outcome == metrics.OutcomeError {
			slog.Error("Session action failed", "action", action, "session", id, "error", err)
		} else {
			slog.Info("Session action rejected", "action", action, "session", id, "outcome", outcome, "error", err)
		}
		return s, fmt.Errorf("failed to %s: %w", action, err)
	}
	slog.Debug("Session action", "action", action, "session", id)
	return s, nil
}

// Outcome classifies an action error for metrics and status mapping.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, session.ErrValidation),
		errors.Is(err, session.ErrUnknownTab),
		errors.Is(err, mealplan.ErrUnknownMealTime),
		errors.Is(err, mealplan.ErrInvalidDay):
		return metrics.OutcomeInvalid
	case errors.Is(err, mealplan.ErrPermissionDenied):
		return metrics.OutcomeDenied
	case errors.Is(err, recipe.ErrNotFound), errors.Is(err, session.ErrSessionNotFound):
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}

// NewFromConfig loads the configured catalog and builds an App around it.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	catalog, err := LoadCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := Options{PopularLimit: cfg.PopularLimit}
	if cfg.CatalogSource == config.SourceFiles {
		opts.DataPath = cfg.RecipeStoragePath
	}
	sessions := session.NewRepository(cfg.SessionTTL, cfg.Location)
	return NewApp(catalog, sessions, metrics.NewMetrics(), opts), nil
}
