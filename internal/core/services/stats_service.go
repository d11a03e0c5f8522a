package services

import (
	"context"
	"fmt"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
)

type statsService struct {
	taskRepo ports.TaskRepository
	teamRepo ports.TeamRepository
}

func NewStatsService(taskRepo ports.TaskRepository, teamRepo ports.TeamRepository) ports.StatsService {
	return &statsService{taskRepo: taskRepo, teamRepo: teamRepo}
}

func (s *statsService) GetStats(ctx context.Context) (*domain.Stats, error) {
	tasks, err := s.taskRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	teams, err := s.teamRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count teams: %w", err)
	}

	stats := &domain.Stats{
		InProgress:  tasks[domain.TaskStatusInProgress],
		Completed:   tasks[domain.TaskStatusCompleted],
		Available:   tasks[domain.TaskStatusAvailable],
		ActiveTeams: teams[domain.TeamStatusAvailable],
		BusyTeams:   teams[domain.TeamStatusBusy],
	}
	for _, n := range tasks {
		stats.TotalTasks += n
	}
	return stats, nil
}
