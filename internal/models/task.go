package models

import (
	"slices"
	"time"
)

type Priority string

const (
	PriorityUrgent    Priority = "urgent"
	PriorityHigh      Priority = "high"
	PriorityMedium    Priority = "medium"
	PriorityMediumLow Priority = "medium-low"
	PriorityLow       Priority = "low"
)

// DefaultPriority is applied on insert when the caller leaves it empty.
const DefaultPriority = PriorityMedium

var priorityRanks = map[Priority]int{
	PriorityUrgent:    0,
	PriorityHigh:      1,
	PriorityMedium:    2,
	PriorityMediumLow: 3,
	PriorityLow:       4,
}

func (p Priority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// Rank returns the display position of the priority, urgent first.
// Unknown priorities sort after low.
func (p Priority) Rank() int {
	rank, ok := priorityRanks[p]
	if !ok {
		return len(priorityRanks)
	}
	return rank
}

type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Notes       string
	Priority    Priority
	Completed   bool
	StartDate   *time.Time
	DueDate     *time.Time
	SoundURI    string
	SoundName   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskInput holds the fields a caller provides when creating a task.
type TaskInput struct {
	Title       string
	Description string
	Notes       string
	Priority    Priority
	Completed   bool
	StartDate   *time.Time
	DueDate     *time.Time
	SoundURI    string
	SoundName   string
}

// TaskPatch holds the fields to change on an existing task.
// Nil fields are left untouched. ClearStartDate and ClearDueDate unset
// the date and win over a value given for it.
type TaskPatch struct {
	Title          *string
	Description    *string
	Notes          *string
	Priority       *Priority
	Completed      *bool
	StartDate      *time.Time
	ClearStartDate bool
	DueDate        *time.Time
	ClearDueDate   bool
	SoundURI       *string
	SoundName      *string
}

// Apply copies the set fields of patch onto the task.
func (t *Task) Apply(patch TaskPatch) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	switch {
	case patch.ClearStartDate:
		t.StartDate = nil
	case patch.StartDate != nil:
		t.StartDate = patch.StartDate
	}
	switch {
	case patch.ClearDueDate:
		t.DueDate = nil
	case patch.DueDate != nil:
		t.DueDate = patch.DueDate
	}
	if patch.SoundURI != nil {
		t.SoundURI = *patch.SoundURI
	}
	if patch.SoundName != nil {
		t.SoundName = *patch.SoundName
	}
}

// SortByPriority returns a copy of tasks ordered urgent first.
// Tasks with the same priority keep their relative order.
func SortByPriority(tasks []Task) []Task {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b Task) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return sorted
}
