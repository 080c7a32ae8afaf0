package mealplan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the format of the day part of a slot key.
const DayLayout = "2006-01-02"

var (
	// ErrPermissionDenied is returned for mutations while the owner is logged out.
	ErrPermissionDenied = errors.New("permission denied: login required to change the meal plan")
	// ErrUnknownMealTime is returned for meal names outside Breakfast, Lunch and Dinner.
	ErrUnknownMealTime = errors.New("unknown meal time")
	// ErrInvalidDay is returned by ParseDay for input not in DayLayout.
	ErrInvalidDay = errors.New("invalid date")
)

// MealTime is one of the three daily meals.
type MealTime string

const (
	Breakfast MealTime = "Breakfast"
	Lunch     MealTime = "Lunch"
	Dinner    MealTime = "Dinner"
)

// MealTimes lists the meals in display order.
var MealTimes = []MealTime{Breakfast, Lunch, Dinner}

// ParseMealTime accepts the meal name in any case.
func ParseMealTime(s string) (MealTime, error) {
	for _, m := range MealTimes {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMealTime, s)
}

// Valid reports whether m is one of MealTimes.
func (m MealTime) Valid() bool {
	for _, known := range MealTimes {
		if m == known {
			return true
		}
	}
	return false
}

// Key addresses a slot.
type Key struct {
	Day  string
	Meal MealTime
}

// Day formats the calendar day of t as used in slot keys.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD day in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDay, s)
	}
	return t, nil
}

// Truncate drops the time of day from t, keeping its location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
