package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type systemSettingRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSystemSettingRepository(db *gorm.DB, log *logger.Logger) ports.SystemSettingRepository {
	return &systemSettingRepository{db: db, log: log}
}

// Get returns nil, nil when the key has never been set.
func (r *systemSettingRepository) Get(ctx context.Context, key string) (*domain.SystemSetting, error) {
	var setting domain.SystemSetting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorw("setting_repo_get_failed", "key", key, "error", err)
		return nil, err
	}
	return &setting, nil
}

// CreateIfAbsent inserts setting unless its key is already stored and returns
// the row that won. created is false when another writer got there first, so
// several servers starting against one database agree on a single value.
func (r *systemSettingRepository) CreateIfAbsent(ctx context.Context, setting *domain.SystemSetting) (*domain.SystemSetting, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).
		Create(setting)
	if res.Error != nil {
		r.log.Errorw("setting_repo_create_failed", "key", setting.Key, "error", res.Error)
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		r.log.Infow("setting_repo_create_ok", "key", setting.Key, "type", setting.Type)
		return setting, true, nil
	}

	stored, err := r.Get(ctx, setting.Key)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("setting %q conflicted but is not readable", setting.Key)
	}
	r.log.Infow("setting_repo_create_skipped_existing", "key", setting.Key)
	return stored, false, nil
}
