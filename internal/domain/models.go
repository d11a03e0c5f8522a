package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== ENUMS ====================

type Activity string

const (
	ActivityMonitoring         Activity = "monitoraggio"
	ActivityPlantInstall       Activity = "impianto"
	ActivityRoutineMaintenance Activity = "manutenzione ordinaria"
)

var Activities = []Activity{ActivityMonitoring, ActivityPlantInstall, ActivityRoutineMaintenance}

func (a Activity) Valid() bool {
	for _, v := range Activities {
		if a == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "bassa"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
	PriorityUrgent Priority = "urgente"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

type TaskStatus string

const (
	TaskStatusAvailable  TaskStatus = "available"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type TeamStatus string

const (
	TeamStatusAvailable TeamStatus = "available"
	TeamStatusBusy      TeamStatus = "busy"
	TeamStatusOffline   TeamStatus = "offline"
)

type PlantStatus string

const (
	PlantStatusActive      PlantStatus = "active"
	PlantStatusMaintenance PlantStatus = "maintenance"
	PlantStatusInactive    PlantStatus = "inactive"
)

var PlantStatuses = []PlantStatus{PlantStatusActive, PlantStatusMaintenance, PlantStatusInactive}

func (s PlantStatus) Valid() bool {
	for _, v := range PlantStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleManager  Role = "gestore"
	RoleOperator Role = "operatore"
)

// ==================== ENTITIES ====================

type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`

	Activity       Activity   `gorm:"size:50;not null" json:"activity"`
	Description    string     `gorm:"type:text;not null" json:"description"`
	Location       string     `gorm:"size:255;not null" json:"location"`
	Plant          string     `gorm:"size:255;not null" json:"plant"`
	Priority       Priority   `gorm:"size:20;not null" json:"priority"`
	EstimatedHours int        `gorm:"not null" json:"estimatedHours"`
	Status         TaskStatus `gorm:"size:20;not null;default:'available';index" json:"status"`

	AssignedTeamID *uint      `gorm:"index" json:"assignedTeamId"`
	StartedAt      *time.Time `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt"`
}

type Team struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name            string     `gorm:"size:255;not null" json:"name"`
	Leader          string     `gorm:"size:255;not null" json:"leader"`
	Status          TeamStatus `gorm:"size:20;not null;default:'available';index" json:"status"`
	CurrentLocation string     `gorm:"size:255;not null" json:"currentLocation"`
	NextAvailable   string     `gorm:"size:255;not null" json:"nextAvailable"`
}

type Plant struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name             string      `gorm:"size:255;not null" json:"name"`
	Location         string      `gorm:"size:255;not null" json:"location"`
	Capacity         string      `gorm:"size:50;not null" json:"capacity"`
	InstallationDate string      `gorm:"size:20;not null" json:"installationDate"`
	Status           PlantStatus `gorm:"size:20;not null;default:'active'" json:"status"`
}

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Username string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Password string `gorm:"size:255;not null" json:"-"`
	Role     Role   `gorm:"size:20;not null;default:'operatore'" json:"role"`
	TeamID   *uint  `json:"teamId"`
}

type TimelineEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	Type         EventType         `gorm:"size:50;not null;index" json:"type"`
	Message      string            `gorm:"type:text" json:"message"`
	Meta         datatypes.JSONMap `json:"meta,omitempty"`
	ResourceID   *uint             `gorm:"index" json:"resourceId,omitempty"`
	ResourceType string            `gorm:"size:50;index" json:"resourceType"`
}

type SystemSetting struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Key      string `gorm:"size:255;uniqueIndex;not null" json:"key"`
	Value    string `gorm:"type:text" json:"value"`
	Type     string `gorm:"size:50;default:'string'" json:"type"`
	Category string `gorm:"size:100;index" json:"category"`
}

// Stats is the dashboard summary served by /api/stats.
type Stats struct {
	TotalTasks  int64 `json:"totalTasks"`
	InProgress  int64 `json:"inProgress"`
	Completed   int64 `json:"completed"`
	Available   int64 `json:"available"`
	ActiveTeams int64 `json:"activeTeams"`
	BusyTeams   int64 `json:"busyTeams"`
}
