package db

import (
	"context"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type taskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepository(db *gorm.DB, log *logger.Logger) ports.TaskRepository {
	return &taskRepository{db: db, log: log}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		r.log.Errorw("task_repo_create_failed", "plant", task.Plant, "error", err)
		return err
	}
	r.log.Infow("task_repo_create_ok", "id", task.ID, "plant", task.Plant)
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		err = notFound(err, domain.ErrTaskNotFound)
		if err != domain.ErrTaskNotFound {
			r.log.Errorw("task_repo_get_failed", "id", id, "error", err)
		}
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) GetAll(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.db.WithContext(ctx).Order("created_at desc, id desc").Find(&tasks).Error; err != nil {
		r.log.Errorw("task_repo_list_failed", "error", err)
		return nil, err
	}
	r.log.Debugw("task_repo_list_ok", "count", len(tasks))
	return tasks, nil
}

// UpdateAvailable patches a task that is still available. The status guard is
// part of the UPDATE so a concurrent assignment cannot be overwritten.
func (r *taskRepository) UpdateAvailable(ctx context.Context, id uint, fields map[string]interface{}) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return notFound(err, domain.ErrTaskNotFound)
		}
		if task.Status != domain.TaskStatusAvailable {
			return invalidState("task %d is %s", id, task.Status)
		}
		if len(fields) == 0 {
			return nil
		}
		res := tx.Model(&domain.Task{}).
			Where("id = ? AND status = ?", id, domain.TaskStatusAvailable).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invalidState("task %d changed concurrently", id)
		}
		return tx.First(&task, id).Error
	})
	if err != nil {
		r.log.Warnw("task_repo_update_failed", "id", id, "error", err)
		return nil, err
	}
	r.log.Infow("task_repo_update_ok", "id", id, "fields", len(fields))
	return &task, nil
}

func (r *taskRepository) DeleteAvailable(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task domain.Task
		if err := tx.First(&task, id).Error; err != nil {
			return notFound(err, domain.ErrTaskNotFound)
		}
		if task.Status != domain.TaskStatusAvailable {
			return invalidState("task %d is %s", id, task.Status)
		}
		res := tx.Where("id = ? AND status = ?", id, domain.TaskStatusAvailable).Delete(&domain.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invalidState("task %d changed concurrently", id)
		}
		return nil
	})
	if err != nil {
		r.log.Warnw("task_repo_delete_failed", "id", id, "error", err)
		return err
	}
	r.log.Infow("task_repo_delete_ok", "id", id)
	return nil
}

// Assign moves a task to in_progress and marks the team busy in one
// transaction. Both rows are updated with a status compare-and-set, so of two
// racing assignments exactly one commits.
func (r *taskRepository) Assign(ctx context.Context, params ports.AssignParams) (*domain.Task, *domain.Team, error) {
	var task domain.Task
	var team domain.Team
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, params.TaskID).Error; err != nil {
			return notFound(err, domain.ErrTaskNotFound)
		}
		if err := tx.First(&team, params.TeamID).Error; err != nil {
			return notFound(err, domain.ErrTeamNotFound)
		}
		if task.Status != domain.TaskStatusAvailable {
			return invalidState("task %d is %s", task.ID, task.Status)
		}
		if team.Status != domain.TeamStatusAvailable {
			return invalidState("team %d is %s", team.ID, team.Status)
		}

		startedAt := params.StartedAt
		teamID := team.ID
		res := tx.Model(&domain.Task{}).
			Where("id = ? AND status = ?", task.ID, domain.TaskStatusAvailable).
			Updates(map[string]interface{}{
				"status":           domain.TaskStatusInProgress,
				"assigned_team_id": teamID,
				"started_at":       startedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invalidState("task %d already assigned", task.ID)
		}

		nextAvailable := params.NextAvailable(&task)
		res = tx.Model(&domain.Team{}).
			Where("id = ? AND status = ?", team.ID, domain.TeamStatusAvailable).
			Updates(map[string]interface{}{
				"status":           domain.TeamStatusBusy,
				"current_location": task.Plant,
				"next_available":   nextAvailable,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invalidState("team %d already busy", team.ID)
		}

		task.Status = domain.TaskStatusInProgress
		task.AssignedTeamID = &teamID
		task.StartedAt = &startedAt
		team.Status = domain.TeamStatusBusy
		team.CurrentLocation = task.Plant
		team.NextAvailable = nextAvailable
		return nil
	})
	if err != nil {
		r.log.Warnw("task_repo_assign_failed", "task_id", params.TaskID, "team_id", params.TeamID, "error", err)
		return nil, nil, err
	}
	r.log.Infow("task_repo_assign_ok", "task_id", task.ID, "team_id", team.ID)
	return &task, &team, nil
}

// Complete moves an in_progress task to completed and releases its team in
// one transaction. The returned team is nil when the task had none.
func (r *taskRepository) Complete(ctx context.Context, params ports.CompleteParams) (*domain.Task, *domain.Team, error) {
	var task domain.Task
	var team *domain.Team
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, params.TaskID).Error; err != nil {
			return notFound(err, domain.ErrTaskNotFound)
		}
		if task.Status != domain.TaskStatusInProgress {
			return invalidState("task %d is %s", task.ID, task.Status)
		}

		completedAt := params.CompletedAt
		res := tx.Model(&domain.Task{}).
			Where("id = ? AND status = ?", task.ID, domain.TaskStatusInProgress).
			Updates(map[string]interface{}{
				"status":       domain.TaskStatusCompleted,
				"completed_at": completedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invalidState("task %d already completed", task.ID)
		}
		task.Status = domain.TaskStatusCompleted
		task.CompletedAt = &completedAt

		if task.AssignedTeamID == nil {
			return nil
		}
		var t domain.Team
		if err := tx.First(&t, *task.AssignedTeamID).Error; err != nil {
			return notFound(err, domain.ErrTeamNotFound)
		}
		if err := tx.Model(&domain.Team{}).
			Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"status":           domain.TeamStatusAvailable,
				"current_location": params.HomeBase,
				"next_available":   params.NextAvailable,
			}).Error; err != nil {
			return err
		}
		t.Status = domain.TeamStatusAvailable
		t.CurrentLocation = params.HomeBase
		t.NextAvailable = params.NextAvailable
		team = &t
		return nil
	})
	if err != nil {
		r.log.Warnw("task_repo_complete_failed", "task_id", params.TaskID, "error", err)
		return nil, nil, err
	}
	r.log.Infow("task_repo_complete_ok", "task_id", task.ID, "released_team", team != nil)
	return &task, team, nil
}

type statusCount struct {
	Status string
	Count  int64
}

func (r *taskRepository) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int64, error) {
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		r.log.Errorw("task_repo_count_failed", "error", err)
		return nil, err
	}
	counts := make(map[domain.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[domain.TaskStatus(row.Status)] = row.Count
	}
	return counts, nil
}
