package state

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/tasky/internal/models"
	"github.com/adanyl0v/tasky/internal/services"
	"github.com/adanyl0v/tasky/internal/services/servicestest"
)

var errBackend = errors.New("backend unavailable")

func seededTasks() *servicestest.Tasks {
	return servicestest.NewTasks(
		models.Task{ID: "1", UserID: "u1", Title: "first", Priority: models.PriorityLow},
		models.Task{ID: "2", UserID: "u1", Title: "second", Priority: models.PriorityHigh},
		models.Task{ID: "3", UserID: "u2", Title: "foreign", Priority: models.PriorityMedium},
	)
}

func TestTaskSliceFetchAll(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())

	require.NoError(t, slice.FetchAll(ctx, "u1"))

	tasks := slice.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "2", tasks[0].ID, "newest first")
	assert.Equal(t, "1", tasks[1].ID)
	assert.False(t, slice.Loading())
}

func TestTaskSliceFetchAllFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	remote := seededTasks()
	slice := NewTaskSlice(zerolog.Nop(), remote)
	require.NoError(t, slice.FetchAll(ctx, "u1"))

	remote.Err = errBackend
	err := slice.FetchAll(ctx, "u1")

	assert.ErrorIs(t, err, errBackend)
	assert.Len(t, slice.Tasks(), 2)
	assert.False(t, slice.Loading())
}

func TestTaskSliceFetchAllConcurrent(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, slice.FetchAll(ctx, "u1"))
		}()
	}
	wg.Wait()

	assert.Len(t, slice.Tasks(), 2)
}

func TestTaskSliceAdd(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())
	require.NoError(t, slice.FetchAll(ctx, "u1"))

	task, err := slice.Add(ctx, "u1", models.TaskInput{Title: "Buy milk"})
	require.NoError(t, err)

	tasks := slice.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, task.ID, tasks[0].ID, "prepended")
	assert.NotEmpty(t, task.ID)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
}

func TestTaskSliceAddFailure(t *testing.T) {
	ctx := context.Background()
	remote := seededTasks()
	slice := NewTaskSlice(zerolog.Nop(), remote)
	require.NoError(t, slice.FetchAll(ctx, "u1"))
	before := slice.Tasks()

	remote.Err = errBackend
	task, err := slice.Add(ctx, "u1", models.TaskInput{Title: "Buy milk"})

	assert.ErrorIs(t, err, errBackend)
	assert.Nil(t, task)
	assert.Equal(t, before, slice.Tasks())
}

func TestTaskSliceAddDoesNotValidate(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), servicestest.NewTasks())
	start := mustTime(t, "2026-10-20T10:00:00Z")
	due := mustTime(t, "2026-10-19T10:00:00Z")

	_, err := slice.Add(ctx, "u1", models.TaskInput{
		Title:     "backwards",
		StartDate: &start,
		DueDate:   &due,
	})

	require.NoError(t, err)
	assert.Len(t, slice.Tasks(), 1)
}

func TestTaskSliceSetCompletedRoundTrip(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())
	require.NoError(t, slice.FetchAll(ctx, "u1"))
	before := slice.Tasks()

	require.NoError(t, slice.SetCompleted(ctx, "1", true))
	tasks := slice.Tasks()
	assert.True(t, tasks[1].Completed)
	assert.Equal(t, before[0], tasks[0], "other tasks unchanged")

	require.NoError(t, slice.SetCompleted(ctx, "1", false))
	assert.Equal(t, before, slice.Tasks())
}

func TestTaskSliceSetCompletedFailure(t *testing.T) {
	ctx := context.Background()
	remote := seededTasks()
	slice := NewTaskSlice(zerolog.Nop(), remote)
	require.NoError(t, slice.FetchAll(ctx, "u1"))

	remote.Err = errBackend
	err := slice.SetCompleted(ctx, "1", true)

	assert.ErrorIs(t, err, errBackend)
	assert.False(t, slice.Tasks()[1].Completed)
}

func TestTaskSliceRemove(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())
	require.NoError(t, slice.FetchAll(ctx, "u1"))

	require.NoError(t, slice.Remove(ctx, "2"))
	tasks := slice.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "1", tasks[0].ID)

	assert.NoError(t, slice.Remove(ctx, "42"), "missing id")
	assert.Len(t, slice.Tasks(), 1)
}

func TestTaskSliceRemoveFailure(t *testing.T) {
	ctx := context.Background()
	remote := seededTasks()
	slice := NewTaskSlice(zerolog.Nop(), remote)
	require.NoError(t, slice.FetchAll(ctx, "u1"))

	remote.Err = errBackend

	assert.ErrorIs(t, slice.Remove(ctx, "2"), errBackend)
	assert.Len(t, slice.Tasks(), 2)
}

func TestTaskSliceUpdate(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())
	require.NoError(t, slice.FetchAll(ctx, "u1"))

	title := "renamed"
	priority := models.PriorityUrgent
	updated, err := slice.Update(ctx, "1", models.TaskPatch{Title: &title, Priority: &priority})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, models.PriorityUrgent, updated.Priority)
	assert.Equal(t, *updated, slice.Tasks()[1])
}

func TestTaskSliceUpdateMissing(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())
	require.NoError(t, slice.FetchAll(ctx, "u1"))
	before := slice.Tasks()

	title := "renamed"
	_, err := slice.Update(ctx, "42", models.TaskPatch{Title: &title})

	assert.ErrorIs(t, err, services.ErrTaskNotFound)
	assert.Equal(t, before, slice.Tasks())
}

func TestTaskSliceTasksReturnsCopy(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())
	require.NoError(t, slice.FetchAll(ctx, "u1"))

	tasks := slice.Tasks()
	tasks[0].Title = "mutated"

	assert.Equal(t, "second", slice.Tasks()[0].Title)
}

func TestTaskSliceClear(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())
	require.NoError(t, slice.FetchAll(ctx, "u1"))

	slice.Clear()

	assert.Empty(t, slice.Tasks())
}
