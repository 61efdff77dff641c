package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/group-expenses/internal"
	expenseDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/expense"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/frahmantamala/group-expenses/internal/payment"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusPaid     Status = "PAID"
)

// transitions lists every legal status change. REJECTED and PAID are final.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusPaid},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Expense is a claim for reimbursement inside a group. Amount is in minor
// units of Currency. UserID is nil for anonymous submissions.
type Expense struct {
	ID             int64          `json:"id"`
	GroupID        int64          `json:"GroupId"`
	UserID         *int64         `json:"UserId"`
	Title          string         `json:"title"`
	Notes          string         `json:"notes"`
	Category       string         `json:"category"`
	Amount         int64          `json:"amount"`
	Currency       string         `json:"currency"`
	PayoutMethod   payment.Method `json:"payoutMethod"`
	Status         Status         `json:"status"`
	LastEditedByID *int64         `json:"lastEditedById"`
	Version        int64          `json:"-"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (e *Expense) OwningGroupID() int64 {
	return e.GroupID
}

func (e *Expense) IsPaid() bool {
	return e.Status == StatusPaid
}

func NewExpense(groupID int64, submitterID *int64, dto ExpenseDTO) *Expense {
	e := &Expense{
		GroupID: groupID,
		UserID:  submitterID,
		Status:  StatusPending,
	}
	dto.apply(e)
	return e
}

var (
	ErrExpenseNotFound = internal.NewNotFoundError("Expense not found")
	ErrExpensePaid     = internal.NewBadRequestError("Paid expenses cannot be changed.")

	// ErrVersionConflict means the row changed since it was read.
	ErrVersionConflict = errors.New("expense version conflict")
)

// ErrStatusShouldBe is the precondition failure of a transition out of want.
func ErrStatusShouldBe(id int64, want Status) *internal.AppError {
	return internal.NewBadRequestError(fmt.Sprintf("Expense %d status should be %s.", id, want))
}

type Repository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id int64) (*Expense, error)
	ListByGroup(ctx context.Context, groupID int64, p pagination.Params) ([]*Expense, int64, error)
	// Update writes e only if its Version is still current, then bumps it.
	Update(ctx context.Context, e *Expense) error
	// Delete removes e only if its Version is still current.
	Delete(ctx context.Context, e *Expense) error
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:             e.ID,
		GroupID:        e.GroupID,
		UserID:         e.UserID,
		Title:          e.Title,
		Notes:          e.Notes,
		Category:       e.Category,
		Amount:         e.Amount,
		Currency:       e.Currency,
		PayoutMethod:   string(e.PayoutMethod),
		Status:         string(e.Status),
		LastEditedByID: e.LastEditedByID,
		Version:        e.Version,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	return &Expense{
		ID:             e.ID,
		GroupID:        e.GroupID,
		UserID:         e.UserID,
		Title:          e.Title,
		Notes:          e.Notes,
		Category:       e.Category,
		Amount:         e.Amount,
		Currency:       e.Currency,
		PayoutMethod:   payment.Method(e.PayoutMethod),
		Status:         Status(e.Status),
		LastEditedByID: e.LastEditedByID,
		Version:        e.Version,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func FromDataModelSlice(expenses []expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i := range expenses {
		result[i] = FromDataModel(&expenses[i])
	}
	return result
}
