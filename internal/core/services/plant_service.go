package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
)

type plantService struct {
	plantRepo ports.PlantRepository
	logger    *logger.Logger
}

func NewPlantService(plantRepo ports.PlantRepository, logger *logger.Logger) ports.PlantService {
	return &plantService{plantRepo: plantRepo, logger: logger}
}

func (s *plantService) GetPlants(ctx context.Context) ([]domain.Plant, error) {
	return s.plantRepo.GetAll(ctx)
}

func (s *plantService) SearchPlants(ctx context.Context, query string) ([]domain.Plant, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, &ValidationError{Message: "invalid search", Fields: []string{"q is required"}}
	}
	return s.plantRepo.Search(ctx, q)
}

func (s *plantService) CreatePlant(ctx context.Context, input ports.CreatePlantInput) (*domain.Plant, error) {
	status := input.Status
	if status == "" {
		status = domain.PlantStatusActive
	}

	var problems []string
	if strings.TrimSpace(input.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		problems = append(problems, "location is required")
	}
	if strings.TrimSpace(input.Capacity) == "" {
		problems = append(problems, "capacity is required")
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(input.InstallationDate)); err != nil {
		problems = append(problems, "installationDate must be a date (YYYY-MM-DD)")
	}
	if !status.Valid() {
		problems = append(problems, fmt.Sprintf("status must be one of %v", domain.PlantStatuses))
	}
	if err := newValidationError("invalid plant", problems); err != nil {
		s.logger.Infow("plant_create_rejected", "error", err)
		return nil, err
	}

	plant := &domain.Plant{
		Name:             strings.TrimSpace(input.Name),
		Location:         strings.TrimSpace(input.Location),
		Capacity:         strings.TrimSpace(input.Capacity),
		InstallationDate: strings.TrimSpace(input.InstallationDate),
		Status:           status,
	}
	if err := s.plantRepo.Create(ctx, plant); err != nil {
		return nil, fmt.Errorf("failed to create plant: %w", err)
	}
	s.logger.Infow("plant_create_ok", "id", plant.ID, "name", plant.Name)
	return plant, nil
}
