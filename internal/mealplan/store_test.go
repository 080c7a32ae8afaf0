package mealplan

import (
	"errors"
	"testing"
	"time"

	"recipe-catalog/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	carbonara = recipe.Recipe{ID: 1, Title: "Carbonara", Difficulty: recipe.Medium}
	caesar    = recipe.Recipe{ID: 2, Title: "Caesar", Difficulty: recipe.Easy}
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestStore_AddThenGet(t *testing.T) {
	s := NewStore(nil)
	jan1 := day(t, "2024-01-01")

	require.NoError(t, s.Add(jan1, Breakfast, caesar))

	assert.Equal(t, []recipe.Recipe{caesar}, s.Slot(jan1, Breakfast))
	assert.Empty(t, s.Slot(jan1, Lunch))
	assert.NotNil(t, s.Slot(jan1, Lunch))
}

func TestStore_TimeOfDayIsIgnored(t *testing.T) {
	s := NewStore(nil)
	morning := time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC)

	require.NoError(t, s.Add(morning, Dinner, carbonara))
	assert.Equal(t, []recipe.Recipe{carbonara}, s.Slot(evening, Dinner))
}

func TestStore_AddRemoveRoundTrip(t *testing.T) {
	jan1 := day(t, "2024-01-01")

	for _, meal := range MealTimes {
		t.Run(string(meal), func(t *testing.T) {
			s := NewStore(nil)
			require.NoError(t, s.Add(jan1, meal, carbonara))
			require.NoError(t, s.Add(jan1, meal, caesar))
			require.NoError(t, s.Add(jan1, meal, carbonara))
			before := s.Slot(jan1, meal)

			require.NoError(t, s.Add(jan1, meal, caesar))
			require.NoError(t, s.Remove(jan1, meal, caesar.ID))

			assert.Equal(t, before, s.Slot(jan1, meal))
		})
	}

	t.Run("EmptySlotIsNotMaterialized", func(t *testing.T) {
		s := NewStore(nil)
		require.NoError(t, s.Add(jan1, Lunch, caesar))
		require.NoError(t, s.Remove(jan1, Lunch, caesar.ID))

		assert.Equal(t, 0, s.Len())
		assert.Empty(t, s.Dates())
	})
}

func TestStore_RemoveIsNoOp(t *testing.T) {
	jan1 := day(t, "2024-01-01")

	t.Run("EmptySlot", func(t *testing.T) {
		s := NewStore(nil)
		require.NoError(t, s.Remove(jan1, Breakfast, 42))
		assert.Empty(t, s.Slot(jan1, Breakfast))
		assert.Equal(t, 0, s.Len())
	})

	t.Run("NonMatching", func(t *testing.T) {
		s := NewStore(nil)
		require.NoError(t, s.Add(jan1, Breakfast, caesar))
		require.NoError(t, s.Remove(jan1, Breakfast, carbonara.ID))
		assert.Len(t, s.Slot(jan1, Breakfast), 1)
	})

	t.Run("RemovesExactlyOne", func(t *testing.T) {
		s := NewStore(nil)
		require.NoError(t, s.Add(jan1, Breakfast, caesar))
		require.NoError(t, s.Add(jan1, Breakfast, caesar))
		require.NoError(t, s.Remove(jan1, Breakfast, caesar.ID))
		assert.Len(t, s.Slot(jan1, Breakfast), 1)
	})
}

func TestStore_PermissionDenied(t *testing.T) {
	loggedIn := false
	s := NewStore(func() bool { return loggedIn })
	jan1 := day(t, "2024-01-01")

	err := s.Add(jan1, Breakfast, caesar)
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.Empty(t, s.Slot(jan1, Breakfast))

	loggedIn = true
	require.NoError(t, s.Add(jan1, Breakfast, caesar))

	loggedIn = false
	err = s.Remove(jan1, Breakfast, caesar.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Len(t, s.Slot(jan1, Breakfast), 1)
}

func TestStore_PermissionCheckedBeforeMealTime(t *testing.T) {
	s := NewStore(func() bool { return false })
	jan1 := day(t, "2024-01-01")

	assert.ErrorIs(t, s.Add(jan1, MealTime("Brunch"), caesar), ErrPermissionDenied)
	assert.ErrorIs(t, s.Remove(jan1, MealTime("Brunch"), caesar.ID), ErrPermissionDenied)
}

func TestStore_UnknownMealTime(t *testing.T) {
	s := NewStore(nil)
	err := s.Add(day(t, "2024-01-01"), MealTime("Brunch"), caesar)
	assert.ErrorIs(t, err, ErrUnknownMealTime)
	assert.Equal(t, 0, s.Len())
}

func TestStore_DayAndDates(t *testing.T) {
	s := NewStore(nil)
	jan2 := day(t, "2024-01-02")
	jan1 := day(t, "2024-01-01")
	require.NoError(t, s.Add(jan2, Dinner, carbonara))
	require.NoError(t, s.Add(jan1, Lunch, caesar))

	plan := s.Day(jan2)
	require.Len(t, plan.Slots, 3)
	assert.Equal(t, "2024-01-02", plan.Date)
	assert.Equal(t, Breakfast, plan.Slots[0].Meal)
	assert.Equal(t, Lunch, plan.Slots[1].Meal)
	assert.Equal(t, Dinner, plan.Slots[2].Meal)
	assert.Equal(t, []recipe.Recipe{carbonara}, plan.Slots[2].Recipes)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, s.Dates())
}

func TestStore_CloneIsIndependent(t *testing.T) {
	s := NewStore(nil)
	jan1 := day(t, "2024-01-01")
	require.NoError(t, s.Add(jan1, Lunch, caesar))

	c := s.Clone(nil)
	require.NoError(t, c.Add(jan1, Lunch, carbonara))

	assert.Len(t, s.Slot(jan1, Lunch), 1)
	assert.Len(t, c.Slot(jan1, Lunch), 2)
}

func TestParseMealTime(t *testing.T) {
	m, err := ParseMealTime("lunch")
	require.NoError(t, err)
	assert.Equal(t, Lunch, m)

	_, err = ParseMealTime("supper")
	assert.ErrorIs(t, err, ErrUnknownMealTime)
}

func TestParseDay(t *testing.T) {
	_, err := ParseDay("01/02/2024", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDay)

	d, err := ParseDay(" 2024-02-29 ", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", Day(d))
}
