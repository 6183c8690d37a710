// Package state implements the core's narrow external-interface boundary
// (spec §6): a StateStore abstraction the optimizer and allocator are
// driven against, plus an in-memory reference implementation and adapters
// backed by Postgres and Redis.
package state

import (
	"context"

	"github.com/lectioshed/scheduler-core/internal/domain"
)

// StateStore is the narrow persistence boundary the core consumes. The
// core itself never reaches into globals or reads environment/files —
// every dependency on durable state flows through this interface (spec §6,
// Design Note "Global mutable state").
type StateStore interface {
	GetSessions(ctx context.Context) ([]domain.Session, error)
	SetSessions(ctx context.Context, sessions []domain.Session) error

	GetExams(ctx context.Context) ([]domain.Exam, error)
	SetExams(ctx context.Context, exams []domain.Exam) error

	GetRoomConfigs(ctx context.Context) ([]domain.RoomConfig, error)
	GetFiliereExclusions(ctx context.Context) (domain.ExclusionSet, error)

	// GetMatiereGroupes returns subject -> distinct filières teaching it.
	GetMatiereGroupes(ctx context.Context) (map[string][]string, error)

	// SaveState flushes whatever is held in memory to durable storage,
	// synchronous or eventually consistent; the boolean reports success.
	SaveState(ctx context.Context) (bool, error)

	// PushUndoSnapshot captures the current sessions collection under
	// label before a mutation, so a caller can roll back on a
	// post-commit conflict (spec §5 "Backup/rollback").
	PushUndoSnapshot(ctx context.Context, label string) error
}
