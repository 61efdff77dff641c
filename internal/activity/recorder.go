package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/group-expenses/internal/core/database"
	"github.com/frahmantamala/group-expenses/internal/core/events"
)

// Publisher is satisfied by *events.EventBus.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Entry describes an activity to record. Data is marshalled to JSON as is.
type Entry struct {
	Type          string
	UserID        *int64
	GroupID       *int64
	ExpenseID     *int64
	TransactionID *int64
	Data          interface{}
}

type Recorder struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
}

func NewRecorder(repo Repository, publisher Publisher, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Record writes the activity in the unit of work carried by ctx. The
// activity is published only after that unit of work commits, so rolled back
// changes never leave the process.
func (r *Recorder) Record(ctx context.Context, entry Entry) (*Activity, error) {
	data, err := json.Marshal(entry.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s activity: %w", entry.Type, err)
	}

	a := &Activity{
		Type:          entry.Type,
		UserID:        entry.UserID,
		GroupID:       entry.GroupID,
		ExpenseID:     entry.ExpenseID,
		TransactionID: entry.TransactionID,
		Data:          data,
	}
	if err := r.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	if r.publisher != nil {
		recorded := *a
		database.AfterCommit(ctx, func(ctx context.Context) {
			event := events.NewActivityRecordedEvent(recorded.ID, recorded.Type,
				recorded.GroupID, recorded.UserID, recorded.ExpenseID, recorded.TransactionID, recorded.Data)
			if err := r.publisher.Publish(ctx, event); err != nil {
				r.logger.Error("activity publish failed", "activity_id", recorded.ID, "type", recorded.Type, "error", err)
			}
		})
	}

	return a, nil
}
