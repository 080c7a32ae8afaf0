package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-catalog/internal/mealplan"
	"recipe-catalog/internal/metrics"
	"recipe-catalog/internal/recipe"
	"recipe-catalog/internal/session"
	"recipe-catalog/internal/view"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	catalog, err := recipe.NewCatalog(recipe.Seed)
	require.NoError(t, err)
	return NewApp(catalog, session.NewRepository(time.Hour, time.UTC), metrics.NewMetrics(), opts)
}

func newSession(t *testing.T, a *App) string {
	t.Helper()
	s, err := a.NewSession(t.Context())
	require.NoError(t, err)
	return s.ID
}

func TestApp_NewSessionStartsOnHome(t *testing.T) {
	a := newTestApp(t, Options{PopularLimit: 2})
	id := newSession(t, a)

	res, s, err := a.View(t.Context(), id, recipe.Filter{})
	require.NoError(t, err)
	assert.False(t, s.IsLoggedIn)
	assert.Equal(t, session.TabHome, res.Tab)
	assert.Len(t, res.Cards, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics().ActiveSessions))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.Metrics().CatalogRecipes))
}

func TestApp_LoginAddAndView(t *testing.T) {
	a := newTestApp(t, Options{})
	ctx := t.Context()
	id := newSession(t, a)
	today := mealplan.Day(time.Now().In(time.UTC))

	_, err := a.AddToSlot(ctx, id, SlotEdit{Day: today, Meal: "dinner", RecipeID: 1})
	require.ErrorIs(t, err, mealplan.ErrPermissionDenied)

	s, err := a.Login(ctx, id, session.Credentials{Email: "cook@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, s.IsLoggedIn)

	_, err = a.AddToSlot(ctx, id, SlotEdit{Day: today, Meal: "dinner", RecipeID: 1})
	require.NoError(t, err)
	_, err = a.SetTab(ctx, id, "planner")
	require.NoError(t, err)

	res, _, err := a.View(ctx, id, recipe.Filter{})
	require.NoError(t, err)
	assert.Equal(t, session.TabPlanner, res.Tab)
	assert.True(t, res.CanEdit)
	assert.Equal(t, today, res.SelectedDate)
	require.Len(t, res.Slots, 3)
	assert.Equal(t, mealplan.Dinner, res.Slots[2].Meal)
	require.Len(t, res.Slots[2].Cards, 1)
	assert.Equal(t, "Pasta Carbonara", res.Slots[2].Cards[0].Title)

	_, err = a.RemoveFromSlot(ctx, id, SlotEdit{Day: today, Meal: "Dinner", RecipeID: 1})
	require.NoError(t, err)
	res, _, err = a.View(ctx, id, recipe.Filter{})
	require.NoError(t, err)
	assert.Empty(t, res.Slots[2].Cards)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics().ActionsTotal.WithLabelValues("add_to_slot", metrics.OutcomeDenied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics().ActionsTotal.WithLabelValues("add_to_slot", metrics.OutcomeOK)))
}

func TestApp_Errors(t *testing.T) {
	a := newTestApp(t, Options{})
	ctx := t.Context()
	id := newSession(t, a)
	_, err := a.Login(ctx, id, session.Credentials{Email: "cook@example.com", Password: "secret"})
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"BadEmail", func() error {
			_, err := a.Login(ctx, id, session.Credentials{Email: "nope", Password: "x"})
			return err
		}, session.ErrValidation},
		{"UnknownTab", func() error { _, err := a.SetTab(ctx, id, "settings"); return err }, session.ErrUnknownTab},
		{"BadDate", func() error { _, err := a.SelectDate(ctx, id, "tomorrow"); return err }, mealplan.ErrInvalidDay},
		{"UnknownMeal", func() error {
			_, err := a.AddToSlot(ctx, id, SlotEdit{Day: "2024-01-01", Meal: "brunch", RecipeID: 1})
			return err
		}, mealplan.ErrUnknownMealTime},
		{"UnknownRecipe", func() error {
			_, err := a.AddToSlot(ctx, id, SlotEdit{Day: "2024-01-01", Meal: "lunch", RecipeID: 99})
			return err
		}, recipe.ErrNotFound},
		{"UnknownSession", func() error { _, err := a.Logout(ctx, "missing"); return err }, session.ErrSessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// A failed login must not log the session out.
	s, err := a.Session(ctx, id)
	require.NoError(t, err)
	assert.True(t, s.IsLoggedIn)
}

func TestApp_LoggedOutEditsAreDeniedFirst(t *testing.T) {
	a := newTestApp(t, Options{})
	ctx := t.Context()
	id := newSession(t, a)
	today := mealplan.Day(time.Now().In(time.UTC))

	edits := map[string]SlotEdit{
		"UnknownRecipe": {Day: today, Meal: "dinner", RecipeID: 999},
		"UnknownMeal":   {Day: today, Meal: "brunch", RecipeID: 1},
		"BadDate":       {Day: "someday", Meal: "lunch", RecipeID: 1},
	}
	for name, e := range edits {
		t.Run(name, func(t *testing.T) {
			_, err := a.AddToSlot(ctx, id, e)
			assert.ErrorIs(t, err, mealplan.ErrPermissionDenied)
			assert.Equal(t, metrics.OutcomeDenied, Outcome(err))

			_, err = a.RemoveFromSlot(ctx, id, e)
			assert.ErrorIs(t, err, mealplan.ErrPermissionDenied)
		})
	}
}

func TestApp_LogoutKeepsTabAndHidesFavorites(t *testing.T) {
	a := newTestApp(t, Options{})
	ctx := t.Context()
	id := newSession(t, a)

	_, err := a.Register(ctx, id, session.Registration{Name: "Ann", Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = a.SetTab(ctx, id, "favorites")
	require.NoError(t, err)

	res, _, err := a.View(ctx, id, recipe.Filter{})
	require.NoError(t, err)
	assert.Equal(t, view.StateEmpty, res.State)

	_, err = a.Logout(ctx, id)
	require.NoError(t, err)
	res, s, err := a.View(ctx, id, recipe.Filter{})
	require.NoError(t, err)
	assert.Equal(t, session.TabFavorites, s.ActiveTab)
	assert.Equal(t, view.StateLoginRequired, res.State)
}

func TestApp_SelectDate(t *testing.T) {
	a := newTestApp(t, Options{})
	id := newSession(t, a)

	s, err := a.SelectDate(t.Context(), id, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", mealplan.Day(s.SelectedDate))
}

func TestApp_EnsureSession(t *testing.T) {
	a := newTestApp(t, Options{})
	ctx := t.Context()

	s, err := a.EnsureSession(ctx, "tg-42")
	require.NoError(t, err)
	assert.Equal(t, "tg-42", s.ID)

	_, err = a.SetTab(ctx, "tg-42", "recipes")
	require.NoError(t, err)
	s, err = a.EnsureSession(ctx, "tg-42")
	require.NoError(t, err)
	assert.Equal(t, session.TabRecipes, s.ActiveTab)
}

func TestApp_RunCleanupStopsWithContext(t *testing.T) {
	a := newTestApp(t, Options{})
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		a.RunCleanup(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not stop")
	}
}

func TestApp_RunCleanupIgnoresNonPositiveInterval(t *testing.T) {
	a := newTestApp(t, Options{})
	for _, interval := range []time.Duration{0, -time.Second} {
		done := make(chan struct{})
		go func() {
			defer close(done)
			assert.NotPanics(t, func() { a.RunCleanup(t.Context(), interval) })
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("RunCleanup(%s) did not return", interval)
		}
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, Outcome(nil))
	assert.Equal(t, metrics.OutcomeInvalid, Outcome(&session.ValidationError{Field: "email"}))
	assert.Equal(t, metrics.OutcomeDenied, Outcome(mealplan.ErrPermissionDenied))
	assert.Equal(t, metrics.OutcomeError, Outcome(errors.New("boom")))
}

func TestApp_Health(t *testing.T) {
	a := newTestApp(t, Options{})
	newSession(t, a)

	h := a.Health()
	assert.Equal(t, 3, h.Recipes)
	assert.Equal(t, 1, h.ActiveSessions)
}

func TestApp_GuestViewIsNotStored(t *testing.T) {
	a := newTestApp(t, Options{})

	res, s, err := a.View(t.Context(), "", recipe.Filter{})
	require.NoError(t, err)
	assert.Equal(t, session.TabHome, res.Tab)
	assert.False(t, s.IsLoggedIn)
	assert.Equal(t, 0, a.Health().ActiveSessions)
}
