package db

import (
	"context"
	"strings"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type plantRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlantRepository(db *gorm.DB, log *logger.Logger) ports.PlantRepository {
	return &plantRepository{db: db, log: log}
}

func (r *plantRepository) Create(ctx context.Context, plant *domain.Plant) error {
	if err := r.db.WithContext(ctx).Create(plant).Error; err != nil {
		r.log.Errorw("plant_repo_create_failed", "name", plant.Name, "error", err)
		return err
	}
	r.log.Infow("plant_repo_create_ok", "id", plant.ID, "name", plant.Name)
	return nil
}

func (r *plantRepository) GetAll(ctx context.Context) ([]domain.Plant, error) {
	var plants []domain.Plant
	if err := r.db.WithContext(ctx).Order("name").Find(&plants).Error; err != nil {
		r.log.Errorw("plant_repo_list_failed", "error", err)
		return nil, err
	}
	return plants, nil
}

// Search matches query as a case-insensitive substring of name or location.
func (r *plantRepository) Search(ctx context.Context, query string) ([]domain.Plant, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var plants []domain.Plant
	err := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("name").
		Find(&plants).Error
	if err != nil {
		r.log.Errorw("plant_repo_search_failed", "query", query, "error", err)
		return nil, err
	}
	r.log.Debugw("plant_repo_search_ok", "query", query, "count", len(plants))
	return plants, nil
}

func (r *plantRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Plant{}).Count(&n).Error
	return n, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
