package ports

import (
	"context"

	"github.com/solarops/dispatch/internal/domain"
)

// Broadcaster fans change events out to every connected realtime client.
// Implementations must not block the caller.
type Broadcaster interface {
	Broadcast(event domain.Event)
}

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID   uint
	Username string
	Role     domain.Role
	TeamID   *uint
}

func (a Actor) IsManager() bool {
	return a.Role == domain.RoleManager
}

type TaskService interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	GetTasks(ctx context.Context) ([]domain.Task, error)
	GetTaskByID(ctx context.Context, id uint) (*domain.Task, error)
	UpdateTask(ctx context.Context, id uint, input UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, id uint) error
	AssignTask(ctx context.Context, actor Actor, taskID, teamID uint) (*domain.Task, *domain.Team, error)
	CompleteTask(ctx context.Context, actor Actor, taskID uint) (*domain.Task, error)
}

type CreateTaskInput struct {
	Activity       domain.Activity
	Description    string
	Location       string
	Plant          string
	Priority       domain.Priority
	EstimatedHours int
}

// UpdateTaskInput is a partial patch; nil fields are left untouched.
type UpdateTaskInput struct {
	Activity       *domain.Activity
	Description    *string
	Location       *string
	Plant          *string
	Priority       *domain.Priority
	EstimatedHours *int
}

type TeamService interface {
	GetTeams(ctx context.Context) ([]domain.Team, error)
	GetTeamByID(ctx context.Context, id uint) (*domain.Team, error)
	UpdateTeam(ctx context.Context, id uint, input UpdateTeamInput) (*domain.Team, error)
}

type UpdateTeamInput struct {
	Name   *string
	Leader *string
	Status *domain.TeamStatus
}

type PlantService interface {
	GetPlants(ctx context.Context) ([]domain.Plant, error)
	SearchPlants(ctx context.Context, query string) ([]domain.Plant, error)
	CreatePlant(ctx context.Context, input CreatePlantInput) (*domain.Plant, error)
}

type CreatePlantInput struct {
	Name             string
	Location         string
	Capacity         string
	InstallationDate string
	Status           domain.PlantStatus
}

type StatsService interface {
	GetStats(ctx context.Context) (*domain.Stats, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
	ParseToken(token string) (*Actor, error)
}
