package dto

import "github.com/solarops/dispatch/internal/domain"

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse is the authenticated user plus the bearer token for later requests.
type LoginResponse struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	TeamID   *uint       `json:"teamId"`
	Token    string      `json:"token"`
}

func UserToLoginResponse(user *domain.User, token string) LoginResponse {
	return LoginResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		TeamID:   user.TeamID,
		Token:    token,
	}
}

type AssignResponse struct {
	Task *domain.Task `json:"task"`
	Team *domain.Team `json:"team"`
}
