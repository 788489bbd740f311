package coach

import (
	"context"

	"github.com/claude/repflow/internal/models"
	"github.com/claude/repflow/internal/session"
	"github.com/claude/repflow/internal/storage"
)

// DataSource abstracts the data layer for coach tools. Both *storage.DB
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	LoadHistory(ctx context.Context, userID int) ([]models.HistoryEntry, error)
	LoadRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error)
}

// LiveSource additionally exposes the in-flight session. Only the remote
// HTTP client can see it — active sessions live in server memory.
type LiveSource interface {
	ActiveSession(ctx context.Context, userID int) (*session.State, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
