package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStats(t *testing.T) {
	// Wednesday.
	now := time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

	tasks := []Task{
		{ID: "1", Completed: true, CreatedAt: now.Add(-time.Hour)},
		{ID: "2", Completed: true, CreatedAt: now.AddDate(0, 0, -2)},
		{ID: "3", Completed: true, CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "4", Completed: false, CreatedAt: now},
	}

	stats := NewStats(tasks, now)

	assert.Equal(t, Stats{
		Total:             4,
		Completed:         3,
		Pending:           1,
		CompletedToday:    1,
		CompletedThisWeek: 2,
		CompletionRate:    75,
	}, stats)
}

func TestNewStatsRoundsRate(t *testing.T) {
	now := time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)
	tasks := []Task{
		{Completed: true},
		{Completed: false},
		{Completed: false},
	}

	assert.Equal(t, 33, NewStats(tasks, now).CompletionRate)
}

func TestNewStatsEmpty(t *testing.T) {
	stats := NewStats(nil, time.Now())
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.CompletionRate)
}

func TestNewDefaultProfile(t *testing.T) {
	now := time.Now()
	profile := NewDefaultProfile("user-1", "a@b.com", now)

	assert.Equal(t, "user-1", profile.ID)
	assert.Equal(t, "a", profile.FirstName)
	assert.Empty(t, profile.LastName)
	assert.Equal(t, DefaultLanguage, profile.Language)
	assert.Equal(t, DefaultTheme, profile.Theme)
	assert.Equal(t, StatusPending, profile.Status)
}
