package mealplan

import (
	"fmt"
	"sort"
	"time"

	"recipe-catalog/internal/recipe"
)

// Guard reports whether the store owner may mutate the plan.
type Guard func() bool

// Slot is the content of one meal on one day.
type Slot struct {
	Meal    MealTime        `json:"meal"`
	Recipes []recipe.Recipe `json:"recipes"`
}

// DayPlan is the three slots of a day in Breakfast, Lunch, Dinner order.
type DayPlan struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// Reader is the read side of a Store.
type Reader interface {
	Slot(date time.Time, meal MealTime) []recipe.Recipe
}

// Store maps (day, meal) to the recipes planned for it. Days without entries
// are never stored. A Store is owned by a single session and is not safe for
// concurrent use.
type Store struct {
	slots map[Key][]recipe.Recipe
	allow Guard
}

// NewStore creates an empty store. A nil guard allows every mutation.
func NewStore(allow Guard) *Store {
	if allow == nil {
		allow = func() bool { return true }
	}
	return &Store{
		slots: make(map[Key][]recipe.Recipe),
		allow: allow,
	}
}

// Slot returns a copy of the recipes planned for the meal, empty if none.
func (s *Store) Slot(date time.Time, meal MealTime) []recipe.Recipe {
	entries := s.slots[Key{Day: Day(date), Meal: meal}]
	out := make([]recipe.Recipe, len(entries))
	copy(out, entries)
	return out
}

// Add appends rec to the slot.
func (s *Store) Add(date time.Time, meal MealTime, rec recipe.Recipe) error {
	if !s.allow() {
		return ErrPermissionDenied
	}
	if !meal.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMealTime, meal)
	}
	k := Key{Day: Day(date), Meal: meal}
	s.slots[k] = append(s.slots[k], rec)
	return nil
}

// Remove drops the most recently added entry for recipeID from the slot.
// Removing from an empty slot or a slot without that recipe is a no-op.
func (s *Store) Remove(date time.Time, meal MealTime, recipeID int) error {
	if !s.allow() {
		return ErrPermissionDenied
	}
	if !meal.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMealTime, meal)
	}
	k := Key{Day: Day(date), Meal: meal}
	entries := s.slots[k]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].ID != recipeID {
			continue
		}
		rest := make([]recipe.Recipe, 0, len(entries)-1)
		rest = append(rest, entries[:i]...)
		rest = append(rest, entries[i+1:]...)
		if len(rest) == 0 {
			delete(s.slots, k)
		} else {
			s.slots[k] = rest
		}
		return nil
	}
	return nil
}

// Day returns the three slots of date.
func (s *Store) Day(date time.Time) DayPlan {
	plan := DayPlan{Date: Day(date), Slots: make([]Slot, 0, len(MealTimes))}
	for _, m := range MealTimes {
		plan.Slots = append(plan.Slots, Slot{Meal: m, Recipes: s.Slot(date, m)})
	}
	return plan
}

// Dates returns the sorted days that have at least one planned recipe.
func (s *Store) Dates() []string {
	seen := make(map[string]struct{})
	for k := range s.slots {
		seen[k.Day] = struct{}{}
	}
	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// Len returns the number of stored (non-empty) slots.
func (s *Store) Len() int {
	return len(s.slots)
}

// Clone returns a deep copy guarded by allow.
func (s *Store) Clone(allow Guard) *Store {
	c := NewStore(allow)
	for k, v := range s.slots {
		c.slots[k] = append([]recipe.Recipe(nil), v...)
	}
	return c
}
