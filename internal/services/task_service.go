package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/tasky/internal/models"
)

const taskColumns = `id,
       user_id,
       title,
       description,
       notes,
       priority,
       completed,
       start_date,
       due_date,
       sound_uri,
       sound_name,
       created_at,
       updated_at`

type taskRow struct {
	ID          int64      `db:"id"`
	UserID      string     `db:"user_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Notes       string     `db:"notes"`
	Priority    string     `db:"priority"`
	Completed   bool       `db:"completed"`
	StartDate   *time.Time `db:"start_date"`
	DueDate     *time.Time `db:"due_date"`
	SoundURI    *string    `db:"sound_uri"`
	SoundName   *string    `db:"sound_name"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r taskRow) toModel() models.Task {
	return models.Task{
		ID:          strconv.FormatInt(r.ID, 10),
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Notes:       r.Notes,
		Priority:    models.Priority(r.Priority),
		Completed:   r.Completed,
		StartDate:   r.StartDate,
		DueDate:     r.DueDate,
		SoundURI:    derefString(r.SoundURI),
		SoundName:   derefString(r.SoundName),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	now    func() time.Time
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
		now:    time.Now,
	}
}

func (s *taskServiceImpl) GetTasksByUserID(ctx context.Context, userID string) ([]models.Task, error) {
	const selectTasksByUserIDQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select tasks by user id")
		return nil, err
	}

	taskRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[taskRow])
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to collect task rows")
		return nil, err
	}

	tasks := make([]models.Task, 0, len(taskRows))
	for _, row := range taskRows {
		tasks = append(tasks, row.toModel())
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("selected tasks by user id")
	return tasks, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, userID string, input models.TaskInput) (*models.Task, error) {
	priority := input.Priority
	if priority == "" {
		priority = models.DefaultPriority
	}

	const insertTaskQuery = `
INSERT INTO tasks (user_id,
                   title,
                   description,
                   notes,
                   priority,
                   completed,
                   start_date,
                   due_date,
                   sound_uri,
                   sound_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + taskColumns

	rows, err := s.pgPool.Query(
		ctx,
		insertTaskQuery,
		userID,
		input.Title,
		input.Description,
		input.Notes,
		string(priority),
		input.Completed,
		input.StartDate,
		input.DueDate,
		nullString(input.SoundURI),
		nullString(input.SoundName),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[taskRow])
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to scan inserted task")
		return nil, err
	}

	task := row.toModel()
	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", userID).
		Msg("created task")
	return &task, nil
}

func (s *taskServiceImpl) SetTaskCompleted(ctx context.Context, taskID string, completed bool) error {
	id, err := parseTaskID(taskID)
	if err != nil {
		s.logger.Error().
			Str("task_id", taskID).
			Msg("malformed task id")
		return ErrTaskNotFound
	}

	const updateTaskCompletedQuery = `
UPDATE tasks
SET completed = $1,
    updated_at = $2
WHERE id = $3
`
	tag, err := s.pgPool.Exec(
		ctx,
		updateTaskCompletedQuery,
		completed,
		s.now(),
		id,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to update task completion")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("task_id", taskID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Str("task_id", taskID).
		Bool("completed", completed).
		Msg("updated task completion")
	return nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) (*models.Task, error) {
	id, err := parseTaskID(taskID)
	if err != nil {
		s.logger.Error().
			Str("task_id", taskID).
			Msg("malformed task id")
		return nil, ErrTaskNotFound
	}

	columns := taskPatchColumns(patch, s.now())
	query, args := buildUpdateQuery("tasks", columns, id, taskColumns)

	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to update task")
		return nil, err
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[taskRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", taskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to scan updated task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", taskID).
		Int("columns", len(columns)).
		Msg("updated task")

	task := row.toModel()
	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return &task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID string) error {
	id, err := parseTaskID(taskID)
	if err != nil {
		s.logger.Warn().
			Str("task_id", taskID).
			Msg("malformed task id, nothing to delete")
		return nil
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		id,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Str("task_id", taskID).
			Msg("task not found, nothing to delete")
		return nil
	}

	s.logger.Info().
		Str("task_id", taskID).
		Msg("deleted task")
	return nil
}

func taskPatchColumns(patch models.TaskPatch, updatedAt time.Time) []column {
	var columns []column
	if patch.Title != nil {
		columns = append(columns, column{"title", *patch.Title})
	}
	if patch.Description != nil {
		columns = append(columns, column{"description", *patch.Description})
	}
	if patch.Notes != nil {
		columns = append(columns, column{"notes", *patch.Notes})
	}
	if patch.Priority != nil {
		columns = append(columns, column{"priority", string(*patch.Priority)})
	}
	if patch.Completed != nil {
		columns = append(columns, column{"completed", *patch.Completed})
	}
	switch {
	case patch.ClearStartDate:
		columns = append(columns, column{"start_date", (*time.Time)(nil)})
	case patch.StartDate != nil:
		columns = append(columns, column{"start_date", *patch.StartDate})
	}
	switch {
	case patch.ClearDueDate:
		columns = append(columns, column{"due_date", (*time.Time)(nil)})
	case patch.DueDate != nil:
		columns = append(columns, column{"due_date", *patch.DueDate})
	}
	if patch.SoundURI != nil {
		columns = append(columns, column{"sound_uri", nullString(*patch.SoundURI)})
	}
	if patch.SoundName != nil {
		columns = append(columns, column{"sound_name", nullString(*patch.SoundName)})
	}
	return append(columns, column{"updated_at", updatedAt})
}

func parseTaskID(taskID string) (int64, error) {
	return strconv.ParseInt(taskID, 10, 64)
}
