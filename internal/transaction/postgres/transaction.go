package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/group-expenses/internal/core/database"
	transactionDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/transaction"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/frahmantamala/group-expenses/internal/transaction"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) transaction.Repository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	row := transaction.ToDataModel(t)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		if isUniqueViolation(err) && t.ExpenseID != nil {
			return transaction.ErrAlreadyPaid.WithCause(err)
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	t.ID = row.ID
	t.CreatedAt = row.CreatedAt
	return nil
}

func (r *TransactionRepository) ListByGroup(ctx context.Context, groupID int64, p pagination.Params) ([]*transaction.Transaction, int64, error) {
	conn := database.Conn(ctx, r.db)

	var total int64
	if err := conn.Model(&transactionDatamodel.Transaction{}).Where("group_id = ?", groupID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions of group %d: %w", groupID, err)
	}

	var rows []transactionDatamodel.Transaction
	if err := conn.Where("group_id = ?", groupID).Scopes(database.Paginate(p)).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list transactions of group %d: %w", groupID, err)
	}

	transactions := make([]*transaction.Transaction, 0, len(rows))
	for i := range rows {
		transactions = append(transactions, transaction.FromDataModel(&rows[i]))
	}
	return transactions, total, nil
}

func (r *TransactionRepository) SumNetByGroup(ctx context.Context, groupID int64) (int64, error) {
	var sum int64
	err := database.Conn(ctx, r.db).Model(&transactionDatamodel.Transaction{}).
		Where("group_id = ?", groupID).
		Select("COALESCE(SUM(net_amount_in_group_currency), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum transactions of group %d: %w", groupID, err)
	}
	return sum, nil
}

// isUniqueViolation relies on gorm's TranslateError and falls back to the
// driver wording when translation is off.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}
