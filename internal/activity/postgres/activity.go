package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/group-expenses/internal/activity"
	"github.com/frahmantamala/group-expenses/internal/core/database"
	activityDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/activity"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) activity.Repository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *activity.Activity) error {
	row := activity.ToDataModel(a)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return fmt.Errorf("create %s activity: %w", a.Type, err)
	}
	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	return nil
}

func (r *ActivityRepository) ListByGroup(ctx context.Context, groupID int64, p pagination.Params) ([]*activity.Activity, int64, error) {
	conn := database.Conn(ctx, r.db)

	var total int64
	if err := conn.Model(&activityDatamodel.Activity{}).Where("group_id = ?", groupID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count activities of group %d: %w", groupID, err)
	}

	var rows []activityDatamodel.Activity
	if err := conn.Where("group_id = ?", groupID).Scopes(database.Paginate(p)).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list activities of group %d: %w", groupID, err)
	}

	activities := make([]*activity.Activity, 0, len(rows))
	for i := range rows {
		activities = append(activities, activity.FromDataModel(&rows[i]))
	}
	return activities, total, nil
}
