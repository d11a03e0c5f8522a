package dto

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() []string {
	var errors []string
	if strings.TrimSpace(r.Username) == "" {
		errors = append(errors, "username is required")
	}
	if r.Password == "" {
		errors = append(errors, "password is required")
	}
	return errors
}

type CreateTaskRequest struct {
	Activity       string          `json:"activity"`
	Description    string          `json:"description"`
	Location       string          `json:"location"`
	Plant          string          `json:"plant"`
	Priority       string          `json:"priority"`
	EstimatedHours json.RawMessage `json:"estimatedHours"`
}

// ParseCreateTaskRequest decodes a create body. Only a body that is not a
// JSON object fails here; field problems are reported by Validate.
func ParseCreateTaskRequest(body []byte) (*CreateTaskRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("invalid request body")
	}
	var req CreateTaskRequest
	for key, raw := range fields {
		switch key {
		case "activity":
			req.Activity = decodeString(raw)
		case "description":
			req.Description = decodeString(raw)
		case "location":
			req.Location = decodeString(raw)
		case "plant":
			req.Plant = decodeString(raw)
		case "priority":
			req.Priority = decodeString(raw)
		case "estimatedHours":
			req.EstimatedHours = raw
		}
	}
	return &req, nil
}

// Validate reports every invalid field in one pass.
func (r *CreateTaskRequest) Validate() []string {
	var errors []string
	if !domain.Activity(r.Activity).Valid() {
		errors = append(errors, fmt.Sprintf("activity must be one of %v", domain.Activities))
	}
	for _, f := range []struct{ name, value string }{
		{"description", r.Description},
		{"location", r.Location},
		{"plant", r.Plant},
	} {
		if strings.TrimSpace(f.value) == "" {
			errors = append(errors, f.name+" is required")
		}
	}
	if !domain.Priority(r.Priority).Valid() {
		errors = append(errors, fmt.Sprintf("priority must be one of %v", domain.Priorities))
	}
	if _, ok := positiveInt(r.EstimatedHours); !ok {
		errors = append(errors, "estimatedHours must be a positive integer")
	}
	return errors
}

func (r *CreateTaskRequest) ToInput() ports.CreateTaskInput {
	hours, _ := positiveInt(r.EstimatedHours)
	return ports.CreateTaskInput{
		Activity:       domain.Activity(r.Activity),
		Description:    r.Description,
		Location:       r.Location,
		Plant:          r.Plant,
		Priority:       domain.Priority(r.Priority),
		EstimatedHours: hours,
	}
}

// decodeString returns "" for anything that is not a JSON string, which
// Validate then reports as missing or invalid.
func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// positiveInt accepts a JSON number with no fractional part greater than 0.
// Strings, booleans and fractions are rejected.
func positiveInt(raw json.RawMessage) (int, bool) {
	var n json.Number
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed[0] == '"' {
		return 0, false
	}
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil || v <= 0 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

type UpdateTaskRequest struct {
	Activity       *string `json:"activity"`
	Description    *string `json:"description"`
	Location       *string `json:"location"`
	Plant          *string `json:"plant"`
	Priority       *string `json:"priority"`
	EstimatedHours *int    `json:"estimatedHours"`
}

var taskPatchable = map[string]bool{
	"activity": true, "description": true, "location": true,
	"plant": true, "priority": true, "estimatedHours": true,
}

// ParseUpdateTaskRequest decodes a task patch. Lifecycle fields such as
// status or assignedTeamId are rejected; they change only through
// assign and complete.
func ParseUpdateTaskRequest(body []byte) (*UpdateTaskRequest, []string) {
	if errs := checkKeys(body, taskPatchable); len(errs) > 0 {
		return nil, errs
	}
	var req UpdateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, []string{"invalid request body"}
	}
	return &req, nil
}

func (r *UpdateTaskRequest) ToInput() ports.UpdateTaskInput {
	input := ports.UpdateTaskInput{
		Description:    r.Description,
		Location:       r.Location,
		Plant:          r.Plant,
		EstimatedHours: r.EstimatedHours,
	}
	if r.Activity != nil {
		a := domain.Activity(*r.Activity)
		input.Activity = &a
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		input.Priority = &p
	}
	return input
}

type AssignTaskRequest struct {
	TeamID *uint `json:"teamId"`
}

func (r *AssignTaskRequest) Validate() []string {
	if r.TeamID == nil || *r.TeamID == 0 {
		return []string{"teamId is required"}
	}
	return nil
}

type UpdateTeamRequest struct {
	Name   *string `json:"name"`
	Leader *string `json:"leader"`
	Status *string `json:"status"`
}

var teamPatchable = map[string]bool{"name": true, "leader": true, "status": true}

// ParseUpdateTeamRequest decodes a team patch. currentLocation and
// nextAvailable are derived from task assignment and cannot be set.
func ParseUpdateTeamRequest(body []byte) (*UpdateTeamRequest, []string) {
	if errs := checkKeys(body, teamPatchable); len(errs) > 0 {
		return nil, errs
	}
	var req UpdateTeamRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, []string{"invalid request body"}
	}
	return &req, nil
}

func (r *UpdateTeamRequest) ToInput() ports.UpdateTeamInput {
	input := ports.UpdateTeamInput{Name: r.Name, Leader: r.Leader}
	if r.Status != nil {
		s := domain.TeamStatus(*r.Status)
		input.Status = &s
	}
	return input
}

type CreatePlantRequest struct {
	Name             string `json:"name"`
	Location         string `json:"location"`
	Capacity         string `json:"capacity"`
	InstallationDate string `json:"installationDate"`
	Status           string `json:"status"`
}

func (r *CreatePlantRequest) ToInput() ports.CreatePlantInput {
	return ports.CreatePlantInput{
		Name:             r.Name,
		Location:         r.Location,
		Capacity:         r.Capacity,
		InstallationDate: r.InstallationDate,
		Status:           domain.PlantStatus(r.Status),
	}
}

func checkKeys(body []byte, allowed map[string]bool) []string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return []string{"invalid request body"}
	}
	var errors []string
	for key := range raw {
		if !allowed[key] {
			errors = append(errors, fmt.Sprintf("%s cannot be updated", key))
		}
	}
	sort.Strings(errors)
	return errors
}
