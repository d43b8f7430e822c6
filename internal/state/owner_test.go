package state

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/tasky/internal/models"
	"github.com/adanyl0v/tasky/internal/services/servicestest"
)

// gate blocks a fake backend call until it is opened.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gate) wait() {
	close(g.entered)
	<-g.release
}

func (g *gate) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("backend call never started")
	}
}

func TestTaskSliceDiscardsFetchReleasedAfterClear(t *testing.T) {
	remote := seededTasks()
	g := newGate()
	remote.BeforeFetch = g.wait
	slice := NewTaskSlice(zerolog.Nop(), remote)
	slice.Bind("u1")

	done := make(chan error, 1)
	go func() { done <- slice.FetchAll(context.Background(), "u1") }()
	g.awaitEntered(t)

	slice.Clear()
	close(g.release)

	assert.ErrorIs(t, <-done, ErrStaleOwner)
	assert.Empty(t, slice.Tasks())
	assert.False(t, slice.Loading())
}

func TestTaskSliceDiscardsFetchReleasedAfterRebind(t *testing.T) {
	remote := seededTasks()
	g := newGate()
	remote.BeforeFetch = g.wait
	slice := NewTaskSlice(zerolog.Nop(), remote)
	slice.Bind("u1")

	done := make(chan error, 1)
	go func() { done <- slice.FetchAll(context.Background(), "u1") }()
	g.awaitEntered(t)

	slice.Bind("u2")
	close(g.release)

	assert.ErrorIs(t, <-done, ErrStaleOwner)
	assert.Empty(t, slice.Tasks(), "u2 must not see u1 tasks")
}

func TestTaskSliceRejectsCallsForInactiveIdentity(t *testing.T) {
	ctx := context.Background()
	remote := seededTasks()
	slice := NewTaskSlice(zerolog.Nop(), remote)
	slice.Bind("u1")
	slice.Clear()
	calls := remote.Calls()

	assert.ErrorIs(t, slice.FetchAll(ctx, "u1"), ErrStaleOwner)
	_, err := slice.Add(ctx, "u1", models.TaskInput{Title: "late"})
	assert.ErrorIs(t, err, ErrStaleOwner)

	assert.Equal(t, calls, remote.Calls(), "no backend call")
	assert.Empty(t, slice.Tasks())

	slice.Bind("u2")
	_, err = slice.Add(ctx, "u1", models.TaskInput{Title: "wrong owner"})
	assert.ErrorIs(t, err, ErrStaleOwner)
}

func TestTaskSliceBindServesNewOwner(t *testing.T) {
	ctx := context.Background()
	slice := NewTaskSlice(zerolog.Nop(), seededTasks())
	slice.Bind("u1")
	require.NoError(t, slice.FetchAll(ctx, "u1"))
	require.Len(t, slice.Tasks(), 2)

	slice.Bind("u2")
	assert.Empty(t, slice.Tasks())

	require.NoError(t, slice.FetchAll(ctx, "u2"))
	tasks := slice.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "foreign", tasks[0].Title)
}

func TestProfileSliceDiscardsBootstrapReleasedAfterClear(t *testing.T) {
	remote := servicestest.NewProfiles(existingProfile())
	g := newGate()
	remote.BeforeGet = g.wait
	slice := NewProfileSlice(zerolog.Nop(), remote)
	slice.Bind("u1")

	type result struct {
		profile models.Profile
		err     error
	}
	done := make(chan result, 1)
	go func() {
		profile, err := slice.Bootstrap(context.Background(), "u1", "ana@example.com")
		done <- result{profile, err}
	}()
	g.awaitEntered(t)

	slice.Clear()
	close(g.release)

	assert.ErrorIs(t, (<-done).err, ErrStaleOwner)
	assert.Nil(t, slice.Profile())
}

func TestProfileSliceDiscardsRefreshReleasedAfterClear(t *testing.T) {
	ctx := context.Background()
	remote := servicestest.NewProfiles(existingProfile())
	slice := NewProfileSlice(zerolog.Nop(), remote)
	slice.Bind("u1")
	_, err := slice.Bootstrap(ctx, "u1", "ana@example.com")
	require.NoError(t, err)

	g := newGate()
	remote.BeforeGet = g.wait
	done := make(chan struct{})
	go func() {
		defer close(done)
		slice.Refresh(ctx, "u1")
	}()
	g.awaitEntered(t)

	slice.Clear()
	close(g.release)
	<-done

	assert.Nil(t, slice.Profile())
}

func TestProfileSliceUpdateAfterClear(t *testing.T) {
	remote := servicestest.NewProfiles(existingProfile())
	slice := NewProfileSlice(zerolog.Nop(), remote)
	slice.Bind("u1")
	slice.Clear()

	theme := "dark"
	_, err := slice.Update(context.Background(), "u1", models.ProfilePatch{Theme: &theme})

	assert.ErrorIs(t, err, ErrStaleOwner)
	assert.Nil(t, slice.Profile())
}
