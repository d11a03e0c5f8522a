package domain

// Broadcast event types pushed on the realtime channel
type EventType string

const (
	EventTaskCreated   EventType = "TASK_CREATED"
	EventTaskUpdated   EventType = "TASK_UPDATED"
	EventTaskDeleted   EventType = "TASK_DELETED"
	EventTaskAssigned  EventType = "TASK_ASSIGNED"
	EventTaskCompleted EventType = "TASK_COMPLETED"
	EventTeamUpdated   EventType = "TEAM_UPDATED"
)

// Resource types recorded on timeline events
const (
	ResourceTask = "task"
	ResourceTeam = "team"
)

// Event is a single change notification. Only the fields relevant to Type are set.
type Event struct {
	Type   EventType `json:"type"`
	Task   *Task     `json:"task,omitempty"`
	Team   *Team     `json:"team,omitempty"`
	TaskID uint      `json:"taskId,omitempty"`
	TeamID uint      `json:"teamId,omitempty"`
}

func (t EventType) IsTaskEvent() bool {
	switch t {
	case EventTaskCreated, EventTaskUpdated, EventTaskDeleted, EventTaskAssigned, EventTaskCompleted:
		return true
	}
	return false
}
