package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/group-expenses/internal/core/database"
	expenseDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/expense"
	"github.com/frahmantamala/group-expenses/internal/expense"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"gorm.io/gorm"
)

// ExpenseRepository implements the expense.Repository interface using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	row := expense.ToDataModel(e)
	row.Version = 1
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	e.ID = row.ID
	e.Version = row.Version
	e.CreatedAt = row.CreatedAt
	e.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	var row expenseDatamodel.Expense
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expense.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("get expense %d: %w", id, err)
	}
	return expense.FromDataModel(&row), nil
}

func (r *ExpenseRepository) ListByGroup(ctx context.Context, groupID int64, p pagination.Params) ([]*expense.Expense, int64, error) {
	conn := database.Conn(ctx, r.db)

	var total int64
	if err := conn.Model(&expenseDatamodel.Expense{}).Where("group_id = ?", groupID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count expenses of group %d: %w", groupID, err)
	}

	var rows []expenseDatamodel.Expense
	if err := conn.Where("group_id = ?", groupID).Scopes(database.Paginate(p)).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list expenses of group %d: %w", groupID, err)
	}
	return expense.FromDataModelSlice(rows), total, nil
}

// Update is a compare-and-swap on the version column: a writer holding a
// stale copy affects no rows and gets expense.ErrVersionConflict.
func (r *ExpenseRepository) Update(ctx context.Context, e *expense.Expense) error {
	now := time.Now()
	res := database.Conn(ctx, r.db).Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND version = ?", e.ID, e.Version).
		Updates(map[string]interface{}{
			"title":             e.Title,
			"notes":             e.Notes,
			"category":          e.Category,
			"amount":            e.Amount,
			"currency":          e.Currency,
			"payout_method":     string(e.PayoutMethod),
			"status":            string(e.Status),
			"last_edited_by_id": e.LastEditedByID,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        now,
		})
	if res.Error != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return expense.ErrVersionConflict
	}
	e.Version++
	e.UpdatedAt = now
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, e *expense.Expense) error {
	res := database.Conn(ctx, r.db).
		Where("id = ? AND version = ?", e.ID, e.Version).
		Delete(&expenseDatamodel.Expense{})
	if res.Error != nil {
		return fmt.Errorf("delete expense %d: %w", e.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return expense.ErrVersionConflict
	}
	return nil
}
