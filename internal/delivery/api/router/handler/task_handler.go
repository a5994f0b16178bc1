package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"docket/internal/delivery/api/middleware"
	"docket/internal/delivery/api/response"
	"docket/internal/domain/entity"
	domainerrors "docket/internal/domain/errors"
	"docket/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// TaskHandlerParams holds dependencies for TaskHandler, injected by Fx.
type TaskHandlerParams struct {
	fx.In

	TaskUC usecase.TaskUsecase
	Logger *slog.Logger
}

// TaskHandler serves the task endpoints of the authenticated user.
type TaskHandler struct {
	taskUC usecase.TaskUsecase
	logger *slog.Logger
}

// NewTaskHandler is the constructor for TaskHandler
func NewTaskHandler(params TaskHandlerParams) *TaskHandler {
	return &TaskHandler{
		taskUC: params.TaskUC,
		logger: params.Logger,
	}
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=200"`
	DueDate     *Date  `json:"due_date"`
}

// UpdateTaskRequest is a partial update. Omitted fields are left unchanged and
// "due_date": null clears the due date.
type UpdateTaskRequest struct {
	Title       *string      `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string      `json:"description" validate:"omitempty,max=200"`
	DueDate     OptionalDate `json:"due_date"`
	IsComplete  *bool        `json:"is_complete"`
}

type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     *Date     `json:"due_date"`
	IsComplete  bool      `json:"is_complete"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newTaskResponse(task *entity.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     dateOrNil(task.DueDate),
		IsComplete:  task.IsComplete,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ListTasks handles retrieving all tasks of the user
func (h *TaskHandler) ListTasks(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, domainerrors.ErrInvalidToken.ErrorCode(), domainerrors.ErrInvalidToken.Message())
	}

	tasks, err := h.taskUC.ListTasks(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, newTaskResponse(task))
	}

	return response.Success(c, http.StatusOK, out)
}

func (h *TaskHandler) GetTask(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, domainerrors.ErrInvalidToken.ErrorCode(), domainerrors.ErrInvalidToken.Message())
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return response.BadRequest(c, domainerrors.ErrInvalidInput.ErrorCode(), "Invalid task ID")
	}

	task, err := h.taskUC.GetTask(c.Request().Context(), userID, taskID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newTaskResponse(task))
}

func (h *TaskHandler) CreateTask(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, domainerrors.ErrInvalidToken.ErrorCode(), domainerrors.ErrInvalidToken.Message())
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid task input")
	}
	if err := c.Validate(&req); err != nil {
		return response.ValidationError(c, err)
	}

	input := usecase.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DueDate != nil {
		input.DueDate = &req.DueDate.Time
	}

	task, err := h.taskUC.CreateTask(c.Request().Context(), userID, input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, newTaskResponse(task))
}

func (h *TaskHandler) UpdateTask(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, domainerrors.ErrInvalidToken.ErrorCode(), domainerrors.ErrInvalidToken.Message())
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return response.BadRequest(c, domainerrors.ErrInvalidInput.ErrorCode(), "Invalid task ID")
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid task input")
	}
	if err := c.Validate(&req); err != nil {
		return response.ValidationError(c, err)
	}

	patch := entity.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		IsComplete:  req.IsComplete,
	}
	if req.DueDate.Set {
		patch.DueDate = req.DueDate.Value
		patch.ClearDueDate = req.DueDate.Value == nil
	}

	task, err := h.taskUC.UpdateTask(c.Request().Context(), userID, taskID, patch)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newTaskResponse(task))
}

func (h *TaskHandler) DeleteTask(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, domainerrors.ErrInvalidToken.ErrorCode(), domainerrors.ErrInvalidToken.Message())
	}
	taskID, ok := parseTaskID(c)
	if !ok {
		return response.BadRequest(c, domainerrors.ErrInvalidInput.ErrorCode(), "Invalid task ID")
	}

	if err := h.taskUC.DeleteTask(c.Request().Context(), userID, taskID); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func parseTaskID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
