package db

import (
	"context"

	"github.com/solarops/dispatch/internal/core/ports"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type teamRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTeamRepository(db *gorm.DB, log *logger.Logger) ports.TeamRepository {
	return &teamRepository{db: db, log: log}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	if err := r.db.WithContext(ctx).Create(team).Error; err != nil {
		r.log.Errorw("team_repo_create_failed", "name", team.Name, "error", err)
		return err
	}
	r.log.Infow("team_repo_create_ok", "id", team.ID, "name", team.Name)
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id uint) (*domain.Team, error) {
	var team domain.Team
	if err := r.db.WithContext(ctx).First(&team, id).Error; err != nil {
		err = notFound(err, domain.ErrTeamNotFound)
		if err != domain.ErrTeamNotFound {
			r.log.Errorw("team_repo_get_failed", "id", id, "error", err)
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetAll(ctx context.Context) ([]domain.Team, error) {
	var teams []domain.Team
	if err := r.db.WithContext(ctx).Order("id").Find(&teams).Error; err != nil {
		r.log.Errorw("team_repo_list_failed", "error", err)
		return nil, err
	}
	r.log.Debugw("team_repo_list_ok", "count", len(teams))
	return teams, nil
}

// Update patches a team. A status change is refused while the team is busy:
// busy is only ever cleared by completing the team's task.
func (r *teamRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&team, id).Error; err != nil {
			return notFound(err, domain.ErrTeamNotFound)
		}
		if len(fields) == 0 {
			return nil
		}
		q := tx.Model(&domain.Team{}).Where("id = ?", id)
		if _, ok := fields["status"]; ok {
			if team.Status == domain.TeamStatusBusy {
				return invalidState("team %d is busy", id)
			}
			q = q.Where("status <> ?", domain.TeamStatusBusy)
		}
		res := q.Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invalidState("team %d changed concurrently", id)
		}
		return tx.First(&team, id).Error
	})
	if err != nil {
		r.log.Warnw("team_repo_update_failed", "id", id, "error", err)
		return nil, err
	}
	r.log.Infow("team_repo_update_ok", "id", id)
	return &team, nil
}

func (r *teamRepository) CountByStatus(ctx context.Context) (map[domain.TeamStatus]int64, error) {
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&domain.Team{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		r.log.Errorw("team_repo_count_failed", "error", err)
		return nil, err
	}
	counts := make(map[domain.TeamStatus]int64, len(rows))
	for _, row := range rows {
		counts[domain.TeamStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *teamRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Team{}).Count(&n).Error
	return n, err
}
