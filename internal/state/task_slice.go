package state

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/adanyl0v/tasky/internal/models"
	"github.com/adanyl0v/tasky/internal/services"
)

// ErrStaleOwner is returned when a call targets an identity the
// container is no longer bound to, or when the container was cleared
// or rebound while the call was in flight.
var ErrStaleOwner = errors.New("state belongs to another session")

// owner tracks which identity a container serves. Every Bind and Clear
// starts a new generation; results of calls started in an older
// generation are discarded.
type owner struct {
	bound bool
	id    string
	gen   uint64
}

// accepts reports whether a call for id may run. An unbound container
// accepts any identity.
func (o owner) accepts(id string) bool {
	return !o.bound || o.id == id
}

// TaskSlice mirrors the tasks of the current identity. Every
// asynchronous entry point calls the backend first and touches the
// local list only when the call succeeded.
type TaskSlice struct {
	logger zerolog.Logger
	remote services.TaskService
	group  singleflight.Group

	mu      sync.RWMutex
	owner   owner
	tasks   []models.Task
	loading bool
}

func NewTaskSlice(logger zerolog.Logger, remote services.TaskService) *TaskSlice {
	return &TaskSlice{
		logger: logger,
		remote: remote,
	}
}

// Bind empties the list and dedicates it to the identity.
func (s *TaskSlice) Bind(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner{bound: true, id: ownerID, gen: s.owner.gen + 1}
	s.tasks = nil
	s.loading = false
}

// Clear empties the list and rejects calls until the next Bind.
func (s *TaskSlice) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner{bound: true, gen: s.owner.gen + 1}
	s.tasks = nil
	s.loading = false
}

// FetchAll replaces the local list with the backend's. Concurrent
// fetches for the same owner share one backend call.
func (s *TaskSlice) FetchAll(ctx context.Context, ownerID string) error {
	gen, err := s.begin(ownerID)
	if err != nil {
		return err
	}

	key := ownerID + "/" + strconv.FormatUint(gen, 10)
	_, err, shared := s.group.Do(key, func() (any, error) {
		s.setLoading(gen, true)
		defer s.setLoading(gen, false)

		tasks, err := s.remote.GetTasksByUserID(ctx, ownerID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", ownerID).
				Msg("failed to fetch tasks")
			return nil, err
		}

		if !s.commit(gen, func() { s.tasks = tasks }) {
			s.logger.Warn().
				Str("user_id", ownerID).
				Msg("discarded tasks fetched for a previous session")
			return nil, ErrStaleOwner
		}

		s.logger.Debug().
			Str("user_id", ownerID).
			Int("count", len(tasks)).
			Msg("fetched tasks")
		return nil, nil
	})
	if shared {
		s.logger.Debug().
			Str("user_id", ownerID).
			Msg("joined in-flight task fetch")
	}
	return err
}

// Add inserts the task remotely and prepends the stored row.
// The input is not validated here.
func (s *TaskSlice) Add(ctx context.Context, ownerID string, input models.TaskInput) (*models.Task, error) {
	gen, err := s.begin(ownerID)
	if err != nil {
		return nil, err
	}

	task, err := s.remote.CreateTask(ctx, ownerID, input)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", ownerID).
			Msg("failed to add task")
		return nil, err
	}

	if !s.commit(gen, func() { s.tasks = slices.Insert(s.tasks, 0, *task) }) {
		s.logger.Warn().
			Str("task_id", task.ID).
			Msg("added task after the session ended")
		return nil, ErrStaleOwner
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Msg("added task")
	return task, nil
}

func (s *TaskSlice) SetCompleted(ctx context.Context, taskID string, completed bool) error {
	gen := s.generation()

	if err := s.remote.SetTaskCompleted(ctx, taskID, completed); err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Bool("completed", completed).
			Msg("failed to set task completion")
		return err
	}

	committed := s.commit(gen, func() {
		if i := s.indexOf(taskID); i >= 0 {
			s.tasks[i].Completed = completed
		}
	})
	if !committed {
		return ErrStaleOwner
	}

	s.logger.Info().
		Str("task_id", taskID).
		Bool("completed", completed).
		Msg("set task completion")
	return nil
}

// Remove deletes the task remotely, then locally. Removing an id that
// isn't present is not an error.
func (s *TaskSlice) Remove(ctx context.Context, taskID string) error {
	gen := s.generation()

	if err := s.remote.DeleteTask(ctx, taskID); err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to remove task")
		return err
	}

	committed := s.commit(gen, func() {
		s.tasks = slices.DeleteFunc(s.tasks, func(t models.Task) bool {
			return t.ID == taskID
		})
	})
	if !committed {
		return ErrStaleOwner
	}

	s.logger.Info().
		Str("task_id", taskID).
		Msg("removed task")
	return nil
}

// Update writes the patch remotely and replaces the local task with
// the returned row.
func (s *TaskSlice) Update(ctx context.Context, taskID string, patch models.TaskPatch) (*models.Task, error) {
	gen := s.generation()

	task, err := s.remote.UpdateTask(ctx, taskID, patch)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to update task")
		return nil, err
	}

	committed := s.commit(gen, func() {
		if i := s.indexOf(taskID); i >= 0 {
			s.tasks[i] = *task
		}
	})
	if !committed {
		return nil, ErrStaleOwner
	}

	s.logger.Info().
		Str("task_id", taskID).
		Msg("updated task")
	return task, nil
}

// Tasks returns a copy of the local list in fetch order.
func (s *TaskSlice) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

func (s *TaskSlice) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *TaskSlice) begin(ownerID string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.owner.accepts(ownerID) {
		s.logger.Warn().
			Str("user_id", ownerID).
			Msg("rejected task call for an inactive identity")
		return 0, ErrStaleOwner
	}
	return s.owner.gen, nil
}

func (s *TaskSlice) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner.gen
}

// commit runs apply under the lock if the generation is still gen.
func (s *TaskSlice) commit(gen uint64, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner.gen != gen {
		return false
	}
	apply()
	return true
}

func (s *TaskSlice) setLoading(gen uint64, loading bool) {
	s.commit(gen, func() { s.loading = loading })
}

// indexOf must be called with mu held.
func (s *TaskSlice) indexOf(taskID string) int {
	return slices.IndexFunc(s.tasks, func(t models.Task) bool {
		return t.ID == taskID
	})
}
