package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/solarops/dispatch/internal/config"
	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

type taskService struct {
	taskRepo     ports.TaskRepository
	timelineRepo ports.TimelineRepository
	broadcaster  ports.Broadcaster
	logger       *logger.Logger
	dispatch     config.DispatchConfig
	now          func() time.Time
	locks        *keyLocker
}

type TaskServiceConfig struct {
	TaskRepo     ports.TaskRepository
	TimelineRepo ports.TimelineRepository
	Broadcaster  ports.Broadcaster
	Logger       *logger.Logger
	Dispatch     config.DispatchConfig
	// Now defaults to time.Now.
	Now func() time.Time
	// SerializeLocally adds an in-process per-task lock in front of the
	// storage compare-and-set. Useful on SQLite where writers queue anyway.
	SerializeLocally bool
}

func NewTaskService(cfg TaskServiceConfig) ports.TaskService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &taskService{
		taskRepo:     cfg.TaskRepo,
		timelineRepo: cfg.TimelineRepo,
		broadcaster:  cfg.Broadcaster,
		logger:       cfg.Logger,
		dispatch:     cfg.Dispatch,
		now:          now,
		locks:        newKeyLocker(cfg.SerializeLocally),
	}
}

func (s *taskService) CreateTask(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
	if err := validateCreateTask(input); err != nil {
		s.logger.Infow("task_create_rejected", "error", err)
		return nil, err
	}

	task := &domain.Task{
		CreatedAt:      s.now(),
		Activity:       input.Activity,
		Description:    strings.TrimSpace(input.Description),
		Location:       strings.TrimSpace(input.Location),
		Plant:          strings.TrimSpace(input.Plant),
		Priority:       input.Priority,
		EstimatedHours: input.EstimatedHours,
		Status:         domain.TaskStatusAvailable,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("task_create_ok", "id", task.ID, "plant", task.Plant, "priority", task.Priority)
	s.record(ctx, domain.EventTaskCreated, task.ID,
		fmt.Sprintf("Task %d created for %s", task.ID, task.Plant),
		map[string]interface{}{"activity": task.Activity, "priority": task.Priority})
	s.broadcaster.Broadcast(domain.Event{Type: domain.EventTaskCreated, Task: task})
	return task, nil
}

func (s *taskService) GetTasks(ctx context.Context) ([]domain.Task, error) {
	return s.taskRepo.GetAll(ctx)
}

func (s *taskService) GetTaskByID(ctx context.Context, id uint) (*domain.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

func (s *taskService) UpdateTask(ctx context.Context, id uint, input ports.UpdateTaskInput) (*domain.Task, error) {
	fields, err := updateTaskFields(input)
	if err != nil {
		s.logger.Infow("task_update_rejected", "id", id, "error", err)
		return nil, err
	}

	unlock := s.locks.lockKeys(taskKey(id))
	defer unlock()

	task, err := s.taskRepo.UpdateAvailable(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update task %d: %w", id, err)
	}

	s.logger.Infow("task_update_ok", "id", id, "fields", len(fields))
	s.record(ctx, domain.EventTaskUpdated, id, fmt.Sprintf("Task %d updated", id), fieldNames(fields))
	s.broadcaster.Broadcast(domain.Event{Type: domain.EventTaskUpdated, Task: task})
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, id uint) error {
	unlock := s.locks.lockKeys(taskKey(id))
	defer unlock()

	if err := s.taskRepo.DeleteAvailable(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}

	s.logger.Infow("task_delete_ok", "id", id)
	s.record(ctx, domain.EventTaskDeleted, id, fmt.Sprintf("Task %d deleted", id), nil)
	s.broadcaster.Broadcast(domain.Event{Type: domain.EventTaskDeleted, TaskID: id})
	return nil
}

func (s *taskService) AssignTask(ctx context.Context, actor ports.Actor, taskID, teamID uint) (*domain.Task, *domain.Team, error) {
	if teamID == 0 {
		return nil, nil, &ValidationError{Message: "invalid assignment", Fields: []string{"teamId is required"}}
	}
	if !actor.IsManager() && (actor.TeamID == nil || *actor.TeamID != teamID) {
		s.logger.Warnw("task_assign_forbidden", "task_id", taskID, "team_id", teamID, "user", actor.Username)
		return nil, nil, fmt.Errorf("assign task %d to team %d: %w", taskID, teamID, ErrForbidden)
	}

	unlock := s.locks.lockKeys(taskKey(taskID), teamKey(teamID))
	defer unlock()

	startedAt := s.now()
	task, team, err := s.taskRepo.Assign(ctx, ports.AssignParams{
		TaskID:    taskID,
		TeamID:    teamID,
		StartedAt: startedAt,
		NextAvailable: func(t *domain.Task) string {
			return s.busyUntil(startedAt, t.EstimatedHours)
		},
	})
	if err != nil {
		s.logger.Warnw("task_assign_failed", "task_id", taskID, "team_id", teamID, "error", err)
		return nil, nil, fmt.Errorf("failed to assign task %d: %w", taskID, err)
	}

	s.logger.Infow("task_assign_ok", "task_id", taskID, "team_id", teamID, "user", actor.Username)
	s.record(ctx, domain.EventTaskAssigned, taskID,
		fmt.Sprintf("Task %d assigned to %s", taskID, team.Name),
		map[string]interface{}{"teamId": teamID, "plant": task.Plant})
	s.broadcaster.Broadcast(domain.Event{Type: domain.EventTaskAssigned, Task: task, Team: team})
	return task, team, nil
}

func (s *taskService) CompleteTask(ctx context.Context, actor ports.Actor, taskID uint) (*domain.Task, error) {
	if !actor.IsManager() {
		current, err := s.taskRepo.GetByID(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to complete task %d: %w", taskID, err)
		}
		if current.AssignedTeamID == nil || actor.TeamID == nil || *current.AssignedTeamID != *actor.TeamID {
			s.logger.Warnw("task_complete_forbidden", "task_id", taskID, "user", actor.Username)
			return nil, fmt.Errorf("complete task %d: %w", taskID, ErrForbidden)
		}
	}

	unlock := s.locks.lockKeys(taskKey(taskID))
	defer unlock()

	task, team, err := s.taskRepo.Complete(ctx, ports.CompleteParams{
		TaskID:        taskID,
		CompletedAt:   s.now(),
		HomeBase:      s.dispatch.HomeBase,
		NextAvailable: s.dispatch.FreeNowLabel,
	})
	if err != nil {
		s.logger.Warnw("task_complete_failed", "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to complete task %d: %w", taskID, err)
	}

	meta := map[string]interface{}{}
	if team != nil {
		meta["teamId"] = team.ID
	}
	s.logger.Infow("task_complete_ok", "task_id", taskID, "user", actor.Username)
	s.record(ctx, domain.EventTaskCompleted, taskID, fmt.Sprintf("Task %d completed", taskID), meta)
	s.broadcaster.Broadcast(domain.Event{Type: domain.EventTaskCompleted, Task: task, Team: team})
	return task, nil
}

// busyUntil renders the team's nextAvailable text while it works a task.
func (s *taskService) busyUntil(start time.Time, hours int) string {
	end := start.Add(time.Duration(hours) * time.Hour)
	return fmt.Sprintf("%s %s", s.dispatch.BusyLabel, end.Format("15:04:05"))
}

// record appends to the activity timeline. Failures are logged only.
func (s *taskService) record(ctx context.Context, eventType domain.EventType, taskID uint, message string, meta map[string]interface{}) {
	if s.timelineRepo == nil {
		return
	}
	id := taskID
	event := &domain.TimelineEvent{
		Type:         eventType,
		Message:      message,
		Meta:         meta,
		ResourceID:   &id,
		ResourceType: domain.ResourceTask,
	}
	if err := s.timelineRepo.Create(ctx, event); err != nil {
		s.logger.Warnw("task_timeline_record_failed", "type", eventType, "task_id", taskID, "error", err)
	}
}

func validateCreateTask(input ports.CreateTaskInput) error {
	var fields []string
	if !input.Activity.Valid() {
		fields = append(fields, fmt.Sprintf("activity must be one of %v", domain.Activities))
	}
	if strings.TrimSpace(input.Description) == "" {
		fields = append(fields, "description is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		fields = append(fields, "location is required")
	}
	if strings.TrimSpace(input.Plant) == "" {
		fields = append(fields, "plant is required")
	}
	if !input.Priority.Valid() {
		fields = append(fields, fmt.Sprintf("priority must be one of %v", domain.Priorities))
	}
	if input.EstimatedHours <= 0 {
		fields = append(fields, "estimatedHours must be a positive integer")
	}
	return newValidationError("invalid task", fields)
}

func updateTaskFields(input ports.UpdateTaskInput) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	var problems []string

	if input.Activity != nil {
		if !input.Activity.Valid() {
			problems = append(problems, fmt.Sprintf("activity must be one of %v", domain.Activities))
		} else {
			fields["activity"] = *input.Activity
		}
	}
	setText := func(name string, value *string) {
		if value == nil {
			return
		}
		if v := strings.TrimSpace(*value); v == "" {
			problems = append(problems, name+" must not be empty")
		} else {
			fields[name] = v
		}
	}
	setText("description", input.Description)
	setText("location", input.Location)
	setText("plant", input.Plant)
	if input.Priority != nil {
		if !input.Priority.Valid() {
			problems = append(problems, fmt.Sprintf("priority must be one of %v", domain.Priorities))
		} else {
			fields["priority"] = *input.Priority
		}
	}
	if input.EstimatedHours != nil {
		if *input.EstimatedHours <= 0 {
			problems = append(problems, "estimatedHours must be a positive integer")
		} else {
			fields["estimated_hours"] = *input.EstimatedHours
		}
	}

	if len(problems) == 0 && len(fields) == 0 {
		problems = append(problems, "at least one field must be provided")
	}
	if err := newValidationError("invalid task update", problems); err != nil {
		return nil, err
	}
	return fields, nil
}

func fieldNames(fields map[string]interface{}) map[string]interface{} {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return map[string]interface{}{"fields": names}
}

func taskKey(id uint) string { return fmt.Sprintf("task:%d", id) }
func teamKey(id uint) string { return fmt.Sprintf("team:%d", id) }
