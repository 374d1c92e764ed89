// Package queue implements the durable mutation queue: ordered local
// intents shared by every process that saves or edits links.
package queue

import (
	"context"

	"github.com/andrejsm/readsync/internal/models"
)

// Repository is the durable, FIFO mutation queue. Records are appended by
// any writer process and removed only by the sync engine after a confirmed
// server response.
type Repository interface {
	// Append deduplicates against existing records with the same
	// (kind class, target) and then persists the record durably before
	// returning. A failed Append must not leave a partial state.
	Append(ctx context.Context, rec *models.MutationRecord) error

	// Snapshot returns a read-only copy of the queue in FIFO order.
	Snapshot(ctx context.Context) ([]models.MutationRecord, error)

	// Remove deletes the record with the given id. Removing an id another
	// process already drained is not an error.
	Remove(ctx context.Context, id string) error

	// Len returns the number of pending records.
	Len(ctx context.Context) (int, error)
}
