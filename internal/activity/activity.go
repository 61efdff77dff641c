package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/frahmantamala/group-expenses/internal"
	activityDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/activity"
	"github.com/frahmantamala/group-expenses/internal/pagination"
)

const (
	TypeExpenseCreated     = "group.expense.created"
	TypeExpenseUpdated     = "group.expense.updated"
	TypeExpenseDeleted     = "group.expense.deleted"
	TypeExpenseApproved    = "group.expense.approved"
	TypeExpenseRejected    = "group.expense.rejected"
	TypeTransactionPaid    = "group.transaction.paid"
	TypeTransactionCreated = "group.transaction.created"
)

// Activity is an immutable audit record. Data is the snapshot taken when it was recorded.
type Activity struct {
	ID            int64           `json:"id"`
	Type          string          `json:"type"`
	UserID        *int64          `json:"UserId"`
	GroupID       *int64          `json:"GroupId"`
	ExpenseID     *int64          `json:"ExpenseId"`
	TransactionID *int64          `json:"TransactionId"`
	Data          json.RawMessage `json:"data"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Repository interface {
	Create(ctx context.Context, a *Activity) error
	ListByGroup(ctx context.Context, groupID int64, p pagination.Params) ([]*Activity, int64, error)
}

func ToDataModel(a *Activity) *activityDatamodel.Activity {
	return &activityDatamodel.Activity{
		ID:            a.ID,
		Type:          a.Type,
		UserID:        a.UserID,
		GroupID:       a.GroupID,
		ExpenseID:     a.ExpenseID,
		TransactionID: a.TransactionID,
		Data:          a.Data,
		CreatedAt:     a.CreatedAt,
	}
}

func FromDataModel(a *activityDatamodel.Activity) *Activity {
	return &Activity{
		ID:            a.ID,
		Type:          a.Type,
		UserID:        a.UserID,
		GroupID:       a.GroupID,
		ExpenseID:     a.ExpenseID,
		TransactionID: a.TransactionID,
		Data:          a.Data,
		CreatedAt:     a.CreatedAt,
	}
}

// UserData is the public view of a user stored in activity snapshots.
func UserData(u *internal.User) map[string]interface{} {
	if u == nil {
		return nil
	}
	return map[string]interface{}{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
	}
}
