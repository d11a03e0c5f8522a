package ports

import (
	"context"
	"time"

	"github.com/solarops/dispatch/internal/domain"
)

// AssignParams describes a single available -> in_progress transition and the
// team side effects that must be committed with it.
type AssignParams struct {
	TaskID        uint
	TeamID        uint
	StartedAt     time.Time
	NextAvailable func(task *domain.Task) string
}

// CompleteParams describes a single in_progress -> completed transition.
type CompleteParams struct {
	TaskID        uint
	CompletedAt   time.Time
	HomeBase      string
	NextAvailable string
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uint) (*domain.Task, error)
	GetAll(ctx context.Context) ([]domain.Task, error)
	UpdateAvailable(ctx context.Context, id uint, fields map[string]interface{}) (*domain.Task, error)
	DeleteAvailable(ctx context.Context, id uint) error
	Assign(ctx context.Context, params AssignParams) (*domain.Task, *domain.Team, error)
	Complete(ctx context.Context, params CompleteParams) (*domain.Task, *domain.Team, error)
	CountByStatus(ctx context.Context) (map[domain.TaskStatus]int64, error)
}

type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id uint) (*domain.Team, error)
	GetAll(ctx context.Context) ([]domain.Team, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*domain.Team, error)
	CountByStatus(ctx context.Context) (map[domain.TeamStatus]int64, error)
	Count(ctx context.Context) (int64, error)
}

type PlantRepository interface {
	Create(ctx context.Context, plant *domain.Plant) error
	GetAll(ctx context.Context) ([]domain.Plant, error)
	Search(ctx context.Context, query string) ([]domain.Plant, error)
	Count(ctx context.Context) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type TimelineRepository interface {
	Create(ctx context.Context, event *domain.TimelineEvent) error
	GetByResource(ctx context.Context, resourceType string, resourceID uint, limit int) ([]domain.TimelineEvent, error)
	GetAll(ctx context.Context, limit int) ([]domain.TimelineEvent, error)
}

type SystemSettingRepository interface {
	Get(ctx context.Context, key string) (*domain.SystemSetting, error)
	CreateIfAbsent(ctx context.Context, setting *domain.SystemSetting) (*domain.SystemSetting, bool, error)
}
