package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/group-expenses/internal/category"
	"github.com/frahmantamala/group-expenses/internal/core/database"
	expenseDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/expense"
	"github.com/frahmantamala/group-expenses/internal/expense"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.Repository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) SummarizeByGroup(ctx context.Context, groupID int64) ([]*category.Summary, error) {
	var rows []*category.Summary
	err := database.Conn(ctx, r.db).
		Model(&expenseDatamodel.Expense{}).
		Select("COALESCE(category, '') AS name, currency, COUNT(*) AS expenses, SUM(amount) AS amount").
		Where("group_id = ? AND status <> ?", groupID, string(expense.StatusRejected)).
		Group("COALESCE(category, ''), currency").
		Order("name ASC, currency ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("summarize categories of group %d: %w", groupID, err)
	}
	return rows, nil
}
