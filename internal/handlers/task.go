package handlers

import (
	"context"
	"errors"

	"github.com/dkovac/tripmates-api/internal/middleware"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/dkovac/tripmates-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TaskHandler struct {
	taskService TaskServiceInterface
	userService UserServiceInterface
	hub         HubInterface
	sseHub      SSEHubInterface
}

func NewTaskHandler(taskService TaskServiceInterface, userService UserServiceInterface, hub HubInterface, sseHub SSEHubInterface) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		userService: userService,
		hub:         hub,
		sseHub:      sseHub,
	}
}

func (h *TaskHandler) broadcast(tripID uuid.UUID, taskID, action, email string) {
	h.hub.BroadcastTasksUpdated(tripID, taskID, action, email)
	h.sseHub.BroadcastTasksUpdated(tripID, taskID, action, email)
}

func (h *TaskHandler) Assign(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, taskID, ok := h.parseTaskParams(c)
	if !ok {
		return
	}

	var req dto.AssignTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.AssignedTo == "" {
		c.BadRequest("assigned_to is required")
		return
	}

	task, err := h.taskService.Assign(context.Background(), tripID, taskID, req.AssignedTo, email)
	if err != nil {
		h.handleTaskError(c, err, "failed to assign task")
		return
	}

	h.broadcast(tripID, taskID, "assigned", email)

	_ = c.JSON(200, task)
}

func (h *TaskHandler) Unassign(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, taskID, ok := h.parseTaskParams(c)
	if !ok {
		return
	}

	task, err := h.taskService.Unassign(context.Background(), tripID, taskID, email)
	if err != nil {
		h.handleTaskError(c, err, "failed to unassign task")
		return
	}

	h.broadcast(tripID, taskID, "unassigned", email)

	_ = c.JSON(200, task)
}

func (h *TaskHandler) Complete(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, taskID, ok := h.parseTaskParams(c)
	if !ok {
		return
	}

	task, err := h.taskService.Complete(context.Background(), tripID, taskID, email)
	if err != nil {
		h.handleTaskError(c, err, "failed to complete task")
		return
	}

	h.broadcast(tripID, taskID, "completed", email)

	_ = c.JSON(200, task)
}

func (h *TaskHandler) Uncomplete(c *drift.Context) {
	email := middleware.GetUserEmail(c)
	tripID, taskID, ok := h.parseTaskParams(c)
	if !ok {
		return
	}

	task, err := h.taskService.Uncomplete(context.Background(), tripID, taskID, email)
	if err != nil {
		h.handleTaskError(c, err, "failed to uncomplete task")
		return
	}

	h.broadcast(tripID, taskID, "uncompleted", email)

	_ = c.JSON(200, task)
}

func (h *TaskHandler) AddComment(c *drift.Context) {
	userID := middleware.GetUserID(c)
	email := middleware.GetUserEmail(c)
	tripID, taskID, ok := h.parseTaskParams(c)
	if !ok {
		return
	}

	var req dto.AddCommentRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Content == "" {
		c.BadRequest("content is required")
		return
	}

	ctx := context.Background()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	comment, err := h.taskService.AddComment(ctx, tripID, taskID, email, user.Name, req.Content)
	if err != nil {
		h.handleTaskError(c, err, "failed to add comment")
		return
	}

	h.broadcast(tripID, taskID, "commented", email)

	_ = c.JSON(201, comment)
}

// EnhancedItems takes the client's generated checklist and returns it with
// assignment, completion and comment state merged in.
func (h *TaskHandler) EnhancedItems(c *drift.Context) {
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	var req dto.ItemsRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	items, err := h.taskService.EnhancedItems(context.Background(), tripID, req.Items)
	if err != nil {
		c.InternalServerError("failed to load task state")
		return
	}

	_ = c.JSON(200, items)
}

func (h *TaskHandler) Stats(c *drift.Context) {
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return
	}

	var req dto.ItemsRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	stats, err := h.taskService.Stats(context.Background(), tripID, req.Items)
	if err != nil {
		c.InternalServerError("failed to compute task stats")
		return
	}

	_ = c.JSON(200, stats)
}

func (h *TaskHandler) parseTaskParams(c *drift.Context) (uuid.UUID, string, bool) {
	tripID, err := uuid.Parse(c.Param("tripId"))
	if err != nil {
		c.BadRequest("invalid trip id")
		return uuid.Nil, "", false
	}

	taskID := c.Param("taskId")
	if taskID == "" {
		c.BadRequest("task id is required")
		return uuid.Nil, "", false
	}

	return tripID, taskID, true
}

func (h *TaskHandler) handleTaskError(c *drift.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden("you do not have permission to manage tasks on this trip")
	case errors.Is(err, services.ErrTaskNotFound):
		c.NotFound("task not found")
	default:
		c.InternalServerError(fallback)
	}
}
