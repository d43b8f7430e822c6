package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adanyl0v/tasky/internal/models"
)

func TestTaskPatchColumnsOnlyProvidedFields(t *testing.T) {
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	title := "Buy milk"
	priority := models.PriorityHigh
	sound := ""

	columns := taskPatchColumns(models.TaskPatch{
		Title:    &title,
		Priority: &priority,
		SoundURI: &sound,
	}, now)

	assert.Equal(t, []column{
		{"title", "Buy milk"},
		{"priority", "high"},
		{"sound_uri", (*string)(nil)},
		{"updated_at", now},
	}, columns)
}

func TestTaskPatchColumnsAlwaysStampsUpdatedAt(t *testing.T) {
	now := time.Now()
	columns := taskPatchColumns(models.TaskPatch{}, now)

	assert.Equal(t, []column{{"updated_at", now}}, columns)
}

func TestProfilePatchColumns(t *testing.T) {
	now := time.Now()
	first, avatar := "Ana", "https://example.com/a.png"

	columns := profilePatchColumns(models.ProfilePatch{
		FirstName: &first,
		Avatar:    &avatar,
	}, now)

	assert.Len(t, columns, 3)
	assert.Equal(t, "first_name", columns[0].name)
	assert.Equal(t, "avatar_url", columns[1].name)
	assert.Equal(t, "updated_at", columns[2].name)
}

func TestBuildUpdateQuery(t *testing.T) {
	query, args := buildUpdateQuery("tasks", []column{
		{"title", "a"},
		{"completed", true},
	}, int64(7), "id, title")

	assert.Equal(t, "UPDATE tasks\n"+
		"SET title = $1,\n"+
		"    completed = $2\n"+
		"WHERE id = $3\n"+
		"RETURNING id, title", query)
	assert.Equal(t, []any{"a", true, int64(7)}, args)
}

func TestTaskRowToModel(t *testing.T) {
	created := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	uri := "file:///sounds/bell.mp3"

	task := taskRow{
		ID:        42,
		UserID:    "user-1",
		Title:     "Buy milk",
		Priority:  "medium",
		SoundURI:  &uri,
		CreatedAt: created,
		UpdatedAt: created,
	}.toModel()

	assert.Equal(t, "42", task.ID)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, uri, task.SoundURI)
	assert.Empty(t, task.SoundName)
	assert.Nil(t, task.DueDate)
}

func TestProfileRowToModelIsConfirmed(t *testing.T) {
	profile := profileRow{
		ID:        "user-1",
		Email:     "a@b.com",
		FirstName: "a",
		Language:  "es",
		Theme:     "light",
	}.toModel()

	assert.Equal(t, models.StatusConfirmed, profile.Status)
	assert.Empty(t, profile.LastName)
	assert.Empty(t, profile.Avatar)
}

func TestParseTaskID(t *testing.T) {
	id, err := parseTaskID("15")
	assert.NoError(t, err)
	assert.Equal(t, int64(15), id)

	_, err = parseTaskID("1700000000000.5")
	assert.Error(t, err)
}

func TestTaskPatchColumnsClearDates(t *testing.T) {
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	due := now.Add(time.Hour)

	columns := taskPatchColumns(models.TaskPatch{
		ClearStartDate: true,
		DueDate:        &due,
	}, now)
	assert.Equal(t, []column{
		{"start_date", (*time.Time)(nil)},
		{"due_date", due},
		{"updated_at", now},
	}, columns)

	columns = taskPatchColumns(models.TaskPatch{
		DueDate:      &due,
		ClearDueDate: true,
	}, now)
	assert.Equal(t, []column{
		{"due_date", (*time.Time)(nil)},
		{"updated_at", now},
	}, columns)
}
