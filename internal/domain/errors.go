package domain

import "errors"

var (
	ErrTaskNotFound  = errors.New("task: not found")
	ErrTeamNotFound  = errors.New("team: not found")
	ErrPlantNotFound = errors.New("plant: not found")
	ErrUserNotFound  = errors.New("user: not found")

	// ErrInvalidState is returned when a transition is not legal from the record's current status.
	ErrInvalidState = errors.New("invalid state transition")
)
