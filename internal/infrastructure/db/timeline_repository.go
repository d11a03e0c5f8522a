package db

import (
	"context"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type timelineRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTimelineRepository(db *gorm.DB, log *logger.Logger) ports.TimelineRepository {
	return &timelineRepository{
		db:  db,
		log: log,
	}
}

func (r *timelineRepository) Create(ctx context.Context, event *domain.TimelineEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		r.log.Errorw("timeline_repo_create_failed", "type", event.Type, "error", err)
		return err
	}
	r.log.Debugw("timeline_repo_create_ok", "id", event.ID, "type", event.Type)
	return nil
}

func (r *timelineRepository) GetAll(ctx context.Context, limit int) ([]domain.TimelineEvent, error) {
	var events []domain.TimelineEvent
	err := r.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		r.log.Errorw("timeline_repo_list_failed", "error", err)
		return nil, err
	}
	return events, nil
}

func (r *timelineRepository) GetByResource(ctx context.Context, resourceType string, resourceID uint, limit int) ([]domain.TimelineEvent, error) {
	var events []domain.TimelineEvent
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		r.log.Errorw("timeline_repo_get_by_resource_failed", "resource_type", resourceType, "resource_id", resourceID, "error", err)
		return nil, err
	}
	return events, nil
}
