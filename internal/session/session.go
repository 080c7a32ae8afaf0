package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-catalog/internal/mealplan"
	"recipe-catalog/internal/recipe"
)

var (
	// ErrValidation marks malformed login or registration input.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownTab is returned by ParseTab for names outside Tabs.
	ErrUnknownTab = errors.New("unknown tab")
)

// Tab is one of the mutually exclusive top-level views.
type Tab string

const (
	TabHome      Tab = "home"
	TabRecipes   Tab = "recipes"
	TabPlanner   Tab = "planner"
	TabFavorites Tab = "favorites"
)

// Tabs lists the tabs in navigation order.
var Tabs = []Tab{TabHome, TabRecipes, TabPlanner, TabFavorites}

// ParseTab resolves a tab name.
func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// ValidationError names the form field that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Credentials is the login form.
type Credentials struct {
	Email    string
	Password string
}

// Registration is the sign-up form.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// Session is the state of one user interaction: authentication, navigation,
// the selected day and the meal plan. It is mutated only through its methods.
type Session struct {
	ID           string
	IsLoggedIn   bool
	UserName     string
	Email        string
	ActiveTab    Tab
	SelectedDate time.Time
	MealPlan     *mealplan.Store
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// New creates a logged-out session on the home tab with today selected.
func New(id string, now time.Time, ttl time.Duration) *Session {
	s := &Session{
		ID:           id,
		ActiveTab:    TabHome,
		SelectedDate: mealplan.Truncate(now),
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	s.MealPlan = mealplan.NewStore(s.loggedIn)
	return s
}

func (s *Session) loggedIn() bool { return s.IsLoggedIn }

// Login marks the session as authenticated. There is no credential check;
// only the shape of the input is validated.
func (s *Session) Login(c Credentials) error {
	if err := validateCredentials(c.Email, c.Password); err != nil {
		return err
	}
	s.IsLoggedIn = true
	s.Email = strings.TrimSpace(c.Email)
	return nil
}

// Register behaves like Login and also records the user's name.
func (s *Session) Register(r Registration) error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := validateCredentials(r.Email, r.Password); err != nil {
		return err
	}
	s.IsLoggedIn = true
	s.UserName = strings.TrimSpace(r.Name)
	s.Email = strings.TrimSpace(r.Email)
	return nil
}

// Logout clears authentication. The active tab is left as is.
func (s *Session) Logout() {
	s.IsLoggedIn = false
	s.UserName = ""
	s.Email = ""
}

// SetActiveTab switches the visible tab.
func (s *Session) SetActiveTab(t Tab) {
	s.ActiveTab = t
}

// SelectDate changes the day shown by the planner.
func (s *Session) SelectDate(d time.Time) {
	s.SelectedDate = mealplan.Truncate(d)
}

// CanEdit returns ErrPermissionDenied unless the session may change its meal plan.
func (s *Session) CanEdit() error {
	if !s.IsLoggedIn {
		return mealplan.ErrPermissionDenied
	}
	return nil
}

// AddToSlot plans rec for the meal on date.
func (s *Session) AddToSlot(date time.Time, meal mealplan.MealTime, rec recipe.Recipe) error {
	return s.MealPlan.Add(date, meal, rec)
}

// RemoveFromSlot removes one planned entry of recipeID.
func (s *Session) RemoveFromSlot(date time.Time, meal mealplan.MealTime, recipeID int) error {
	return s.MealPlan.Remove(date, meal, recipeID)
}

// DisplayName is the user name, or the email when no name was given.
func (s *Session) DisplayName() string {
	if s.UserName != "" {
		return s.UserName
	}
	return s.Email
}

// Snapshot returns a deep copy that can be read without holding the owner's
// lock. The copy's meal plan keeps the login state at the time of the call.
func (s *Session) Snapshot() Session {
	c := *s
	loggedIn := s.IsLoggedIn
	c.MealPlan = s.MealPlan.Clone(func() bool { return loggedIn })
	return c
}

func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return &ValidationError{Field: "email", Message: "email is required"}
	case !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@"):
		return &ValidationError{Field: "email", Message: "email must look like name@example.com"}
	case strings.TrimSpace(password) == "":
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	return nil
}
