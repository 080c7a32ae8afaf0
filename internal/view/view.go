// Package view derives what each tab shows from the session, the catalog and
// the meal plan. Select has no side effects.
package view

import (
	"time"

	"recipe-catalog/internal/mealplan"
	"recipe-catalog/internal/recipe"
	"recipe-catalog/internal/session"
)

// State tells the renderer which variant of a tab to draw.
type State string

const (
	StateContent       State = "content"
	StateEmpty         State = "empty"
	StateLoginRequired State = "login_required"
)

// Card is a recipe with its difficulty badge style.
type Card struct {
	recipe.Recipe
	Style recipe.Style `json:"style"`
}

// Slot is one planner row.
type Slot struct {
	Meal  mealplan.MealTime `json:"meal"`
	Cards []Card            `json:"cards"`
}

// Input is everything Select reads.
type Input struct {
	Tab          session.Tab
	LoggedIn     bool
	Catalog      *recipe.Catalog
	MealPlan     mealplan.Reader
	SelectedDate time.Time
	Filter       recipe.Filter
	// PopularLimit caps the home tab; 0 shows the whole catalog.
	PopularLimit int
}

// Result is the content of the active tab.
type Result struct {
	Tab          session.Tab   `json:"tab"`
	State        State         `json:"state"`
	LoggedIn     bool          `json:"logged_in"`
	Cards        []Card        `json:"cards,omitempty"`
	Slots        []Slot        `json:"slots,omitempty"`
	SelectedDate string        `json:"selected_date,omitempty"`
	CanEdit      bool          `json:"can_edit"`
	Options      []Card        `json:"options,omitempty"`
	Filter       recipe.Filter `json:"filter"`
}

// Select computes the view for in.Tab.
func Select(in Input) Result {
	res := Result{Tab: in.Tab, LoggedIn: in.LoggedIn, State: StateContent}

	switch in.Tab {
	case session.TabRecipes:
		res.Filter = in.Filter
		res.Cards = cards(in.Catalog.Filter(in.Filter))
	case session.TabPlanner:
		res.SelectedDate = mealplan.Day(in.SelectedDate)
		res.CanEdit = in.LoggedIn
		res.Slots = slots(in.MealPlan, in.SelectedDate)
		if in.LoggedIn {
			res.Options = cards(in.Catalog.List())
		}
		return res
	case session.TabFavorites:
		if !in.LoggedIn {
			res.State = StateLoginRequired
			return res
		}
		res.Cards = cards(in.Catalog.Favorites())
	default:
		res.Tab = session.TabHome
		res.Cards = cards(popular(in.Catalog.List(), in.PopularLimit))
	}

	if len(res.Cards) == 0 {
		res.State = StateEmpty
	}
	return res
}

func popular(recipes []recipe.Recipe, limit int) []recipe.Recipe {
	if limit > 0 && limit < len(recipes) {
		return recipes[:limit]
	}
	return recipes
}

func slots(plan mealplan.Reader, date time.Time) []Slot {
	out := make([]Slot, 0, len(mealplan.MealTimes))
	for _, m := range mealplan.MealTimes {
		var recipes []recipe.Recipe
		if plan != nil {
			recipes = plan.Slot(date, m)
		}
		out = append(out, Slot{Meal: m, Cards: cards(recipes)})
	}
	return out
}

func cards(recipes []recipe.Recipe) []Card {
	out := make([]Card, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, Card{Recipe: r, Style: recipe.DifficultyStyle(r.Difficulty)})
	}
	return out
}
