package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/tasky/internal/models"
	"github.com/adanyl0v/tasky/internal/services"
	"github.com/adanyl0v/tasky/internal/state"
)

type getTaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Notes       string     `json:"notes"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SoundURI    string     `json:"sound_uri,omitempty"`
	SoundName   string     `json:"sound_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Notes:       task.Notes,
		Priority:    string(task.Priority),
		Completed:   task.Completed,
		StartDate:   task.StartDate,
		DueDate:     task.DueDate,
		SoundURI:    task.SoundURI,
		SoundName:   task.SoundName,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func newGetTaskResponses(tasks []models.Task) []getTaskResponse {
	response := make([]getTaskResponse, len(tasks))
	for i := range tasks {
		response[i] = newGetTaskResponse(&tasks[i])
	}
	return response
}

type getTasksResponse struct {
	Pending   []getTaskResponse `json:"pending"`
	Completed []getTaskResponse `json:"completed"`
	Loading   bool              `json:"loading"`
	Warning   string            `json:"warning,omitempty"`
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	refresh, err := parseOptionalBool(c.Query("refresh"))
	if err != nil {
		abort(c, newBadRequestError(errInvalidQuery.Error()))
		return
	}

	var response getTasksResponse
	if refresh {
		err = h.tasks.FetchAll(c, userID)
		if errors.Is(err, state.ErrStaleOwner) {
			abort(c, newConflictError(errSessionChanged.Error()))
			return
		}
		if err != nil {
			response.Warning = "showing tasks saved on this device"
		}
	}

	var pending, completed []models.Task
	for _, task := range h.tasks.Tasks() {
		if task.Completed {
			completed = append(completed, task)
		} else {
			pending = append(pending, task)
		}
	}
	response.Pending = newGetTaskResponses(models.SortByPriority(pending))
	response.Completed = newGetTaskResponses(models.SortByPriority(completed))
	response.Loading = h.tasks.Loading()

	h.logger.Debug().
		Int("pending", len(pending)).
		Int("completed", len(completed)).
		Msg("listed tasks")
	c.JSON(http.StatusOK, response)
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description" binding:"max=4096"`
	Notes       string     `json:"notes" binding:"max=4096"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
	SoundURI    string     `json:"sound_uri"`
	SoundName   string     `json:"sound_name"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	input := models.TaskInput{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Notes:       req.Notes,
		Priority:    models.Priority(req.Priority),
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		SoundURI:    req.SoundURI,
		SoundName:   req.SoundName,
	}
	if input.Priority == "" {
		input.Priority = models.DefaultPriority
	}
	if err = validateTask(input.Title, input.Priority, input.StartDate, input.DueDate); err != nil {
		h.logger.Warn().
			Err(err).
			Msg("rejected task")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	task, err := h.tasks.Add(c, userID, input)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

// optionalTime tells an absent field from an explicit null.
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var value time.Time
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.Value = &value
	return nil
}

type updateTaskRequest struct {
	Title       *string      `json:"title" binding:"omitempty,max=255"`
	Description *string      `json:"description" binding:"omitempty,max=4096"`
	Notes       *string      `json:"notes" binding:"omitempty,max=4096"`
	Priority    *string      `json:"priority"`
	StartDate   optionalTime `json:"start_date"`
	DueDate     optionalTime `json:"due_date"`
	SoundURI    *string      `json:"sound_uri"`
	SoundName   *string      `json:"sound_name"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	taskID := c.Param("id")
	current, ok := h.findTask(taskID)
	if !ok {
		abort(c, newNotFoundError(errTaskNotFound.Error()))
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	patch := models.TaskPatch{
		Description:    req.Description,
		Notes:          req.Notes,
		StartDate:      req.StartDate.Value,
		ClearStartDate: req.StartDate.Set && req.StartDate.Value == nil,
		DueDate:        req.DueDate.Value,
		ClearDueDate:   req.DueDate.Set && req.DueDate.Value == nil,
		SoundURI:       req.SoundURI,
		SoundName:      req.SoundName,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		patch.Title = &title
	}
	if req.Priority != nil {
		priority := models.Priority(*req.Priority)
		patch.Priority = &priority
	}
	if patch == (models.TaskPatch{}) {
		abort(c, newBadRequestError(errEmptyPatch.Error()))
		return
	}

	merged := current
	merged.Apply(patch)
	if err = validateTask(merged.Title, merged.Priority, merged.StartDate, merged.DueDate); err != nil {
		h.logger.Warn().
			Err(err).
			Str("task_id", taskID).
			Msg("rejected task update")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	task, err := h.tasks.Update(c, taskID, patch)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleSetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if _, ok := h.findTask(taskID); !ok {
		abort(c, newNotFoundError(errTaskNotFound.Error()))
		return
	}

	completed, err := strconv.ParseBool(c.Query("completed"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("invalid completed flag")
		abort(c, newBadRequestError(errInvalidQuery.Error()))
		return
	}

	err = h.tasks.SetCompleted(c, taskID, completed)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	task, ok := h.findTask(taskID)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(&task))
}

// HandleDeleteTask succeeds for ids that are not in the list.
func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	taskID := c.Param("id")
	if _, ok := h.findTask(taskID); !ok {
		h.logger.Debug().
			Str("task_id", taskID).
			Msg("task to delete is not loaded")
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.tasks.Remove(c, taskID); err != nil {
		abortTaskError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statsResponse struct {
	Total             int `json:"total"`
	Completed         int `json:"completed"`
	Pending           int `json:"pending"`
	CompletedToday    int `json:"completed_today"`
	CompletedThisWeek int `json:"completed_this_week"`
	CompletionRate    int `json:"completion_rate"`
}

func (h *handlerImpl) HandleGetStats(c *gin.Context) {
	stats := models.NewStats(h.tasks.Tasks(), time.Now())
	c.JSON(http.StatusOK, statsResponse{
		Total:             stats.Total,
		Completed:         stats.Completed,
		Pending:           stats.Pending,
		CompletedToday:    stats.CompletedToday,
		CompletedThisWeek: stats.CompletedThisWeek,
		CompletionRate:    stats.CompletionRate,
	})
}

func (h *handlerImpl) findTask(taskID string) (models.Task, bool) {
	for _, task := range h.tasks.Tasks() {
		if task.ID == taskID {
			return task, true
		}
	}
	return models.Task{}, false
}

func validateTask(title string, priority models.Priority, start, due *time.Time) error {
	if title == "" {
		return errEmptyTitle
	}
	if !priority.Valid() {
		return errUnknownPriority
	}
	if start != nil && due != nil && !due.After(*start) {
		return errDueBeforeStart
	}
	return nil
}

func abortTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(errTaskNotFound.Error()))
	case errors.Is(err, state.ErrStaleOwner):
		abort(c, newConflictError(errSessionChanged.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
