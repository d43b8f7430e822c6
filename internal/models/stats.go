package models

import (
	"math"
	"time"
)

type Stats struct {
	Total             int
	Completed         int
	Pending           int
	CompletedToday    int
	CompletedThisWeek int
	CompletionRate    int
}

// NewStats summarizes tasks as seen at now. Completed tasks count towards
// today and this week by their creation time; weeks start on Sunday in
// now's location.
func NewStats(tasks []Task, now time.Time) Stats {
	loc := now.Location()
	year, month, day := now.Date()
	startOfDay := time.Date(year, month, day, 0, 0, 0, 0, loc)
	startOfWeek := startOfDay.AddDate(0, 0, -int(now.Weekday()))
	endOfDay := startOfDay.AddDate(0, 0, 1)

	var stats Stats
	stats.Total = len(tasks)
	for _, task := range tasks {
		if !task.Completed {
			stats.Pending++
			continue
		}
		stats.Completed++

		createdAt := task.CreatedAt.In(loc)
		if !createdAt.Before(startOfDay) && createdAt.Before(endOfDay) {
			stats.CompletedToday++
		}
		if !createdAt.Before(startOfWeek) {
			stats.CompletedThisWeek++
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.Completed) / float64(stats.Total) * 100
		stats.CompletionRate = int(math.Round(rate))
	}
	return stats
}
