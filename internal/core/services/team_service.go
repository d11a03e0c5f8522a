package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

type teamService struct {
	teamRepo     ports.TeamRepository
	timelineRepo ports.TimelineRepository
	broadcaster  ports.Broadcaster
	logger       *logger.Logger
}

type TeamServiceConfig struct {
	TeamRepo     ports.TeamRepository
	TimelineRepo ports.TimelineRepository
	Broadcaster  ports.Broadcaster
	Logger       *logger.Logger
}

func NewTeamService(cfg TeamServiceConfig) ports.TeamService {
	return &teamService{
		teamRepo:     cfg.TeamRepo,
		timelineRepo: cfg.TimelineRepo,
		broadcaster:  cfg.Broadcaster,
		logger:       cfg.Logger,
	}
}

func (s *teamService) GetTeams(ctx context.Context) ([]domain.Team, error) {
	return s.teamRepo.GetAll(ctx)
}

func (s *teamService) GetTeamByID(ctx context.Context, id uint) (*domain.Team, error) {
	return s.teamRepo.GetByID(ctx, id)
}

// UpdateTeam patches the editable team fields. busy is never accepted here;
// it is set and cleared only by task assignment and completion.
func (s *teamService) UpdateTeam(ctx context.Context, id uint, input ports.UpdateTeamInput) (*domain.Team, error) {
	fields := make(map[string]interface{})
	var problems []string

	if input.Name != nil {
		if v := strings.TrimSpace(*input.Name); v == "" {
			problems = append(problems, "name must not be empty")
		} else {
			fields["name"] = v
		}
	}
	if input.Leader != nil {
		if v := strings.TrimSpace(*input.Leader); v == "" {
			problems = append(problems, "leader must not be empty")
		} else {
			fields["leader"] = v
		}
	}
	if input.Status != nil {
		switch *input.Status {
		case domain.TeamStatusAvailable, domain.TeamStatusOffline:
			fields["status"] = *input.Status
		default:
			problems = append(problems, "status must be available or offline")
		}
	}
	if len(problems) == 0 && len(fields) == 0 {
		problems = append(problems, "at least one field must be provided")
	}
	if err := newValidationError("invalid team update", problems); err != nil {
		s.logger.Infow("team_update_rejected", "id", id, "error", err)
		return nil, err
	}

	team, err := s.teamRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update team %d: %w", id, err)
	}

	s.logger.Infow("team_update_ok", "id", id, "status", team.Status)
	if s.timelineRepo != nil {
		resourceID := id
		event := &domain.TimelineEvent{
			Type:         domain.EventTeamUpdated,
			Message:      fmt.Sprintf("Team %s updated", team.Name),
			Meta:         fieldNames(fields),
			ResourceID:   &resourceID,
			ResourceType: domain.ResourceTeam,
		}
		if err := s.timelineRepo.Create(ctx, event); err != nil {
			s.logger.Warnw("team_timeline_record_failed", "team_id", id, "error", err)
		}
	}
	s.broadcaster.Broadcast(domain.Event{Type: domain.EventTeamUpdated, Team: team, TeamID: team.ID})
	return team, nil
}
