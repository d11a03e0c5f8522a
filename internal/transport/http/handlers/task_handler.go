package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"github.com/solarops/dispatch/internal/transport/http/dto"
	httpmw "github.com/solarops/dispatch/internal/transport/http/middleware"
)

type TaskHandler struct {
	service ports.TaskService
	logger  *logger.Logger
}

func NewTaskHandler(service ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

func (h *TaskHandler) GetTasks(c *fiber.Ctx) error {
	tasks, err := h.service.GetTasks(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "tasks_list", err)
	}
	h.logger.Debugw("tasks_list_success", "count", len(tasks))
	return c.JSON(tasks)
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid task id")
	}
	task, err := h.service.GetTaskByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, "task_get", err)
	}
	return c.JSON(task)
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	req, err := dto.ParseCreateTaskRequest(c.Body())
	if err != nil {
		h.logger.Warnw("task_create_body_parse_failed", "error", err)
		return badRequest(c, "invalid request body")
	}
	if errors := req.Validate(); len(errors) > 0 {
		h.logger.Warnw("task_create_validation_failed", "details", errors)
		return badRequest(c, "validation failed", errors...)
	}

	h.logger.Infow("task_create_request", "plant", req.Plant, "priority", req.Priority)
	task, err := h.service.CreateTask(c.UserContext(), req.ToInput())
	if err != nil {
		return respondError(c, h.logger, "task_create", err)
	}

	h.logger.Infow("task_create_success", "id", task.ID)
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid task id")
	}
	req, errors := dto.ParseUpdateTaskRequest(c.Body())
	if len(errors) > 0 {
		h.logger.Warnw("task_update_validation_failed", "id", id, "details", errors)
		return badRequest(c, "validation failed", errors...)
	}

	h.logger.Infow("task_update_request", "id", id)
	task, err := h.service.UpdateTask(c.UserContext(), id, req.ToInput())
	if err != nil {
		return respondError(c, h.logger, "task_update", err)
	}
	h.logger.Infow("task_update_success", "id", id)
	return c.JSON(task)
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid task id")
	}

	h.logger.Infow("task_delete_request", "id", id)
	if err := h.service.DeleteTask(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, "task_delete", err)
	}
	h.logger.Infow("task_delete_success", "id", id)
	return c.JSON(dto.MessageResponse{Message: "Task deleted successfully"})
}

func (h *TaskHandler) AssignTask(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid task id")
	}
	var req dto.AssignTaskRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			h.logger.Warnw("task_assign_body_parse_failed", "error", err)
			return badRequest(c, "invalid request body")
		}
	}

	actor, _ := httpmw.ActorFrom(c)
	if req.TeamID == nil && actor.TeamID != nil && !actor.IsManager() {
		req.TeamID = actor.TeamID
	}
	if errors := req.Validate(); len(errors) > 0 {
		return badRequest(c, "validation failed", errors...)
	}

	h.logger.Infow("task_assign_request", "id", id, "team_id", *req.TeamID, "user", actor.Username)
	task, team, err := h.service.AssignTask(c.UserContext(), actor, id, *req.TeamID)
	if err != nil {
		return respondError(c, h.logger, "task_assign", err)
	}
	h.logger.Infow("task_assign_success", "id", id, "team_id", team.ID)
	return c.JSON(dto.AssignResponse{Task: task, Team: team})
}

func (h *TaskHandler) CompleteTask(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid task id")
	}
	actor, _ := httpmw.ActorFrom(c)

	h.logger.Infow("task_complete_request", "id", id, "user", actor.Username)
	task, err := h.service.CompleteTask(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, h.logger, "task_complete", err)
	}
	h.logger.Infow("task_complete_success", "id", id)
	return c.JSON(task)
}
