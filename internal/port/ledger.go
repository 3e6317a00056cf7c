package port

import (
	"errors"

	"relocate/internal/domain"
)

// ErrRunNotFound is returned by ledgers for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// Ledger keeps a history of applied relocation passes.
type Ledger interface {
	PutRun(run domain.RunRecord) error

	GetRun(id string) (domain.RunRecord, error)

	// ListRuns returns runs newest first, at most limit (0 means all).
	ListRuns(limit int) ([]domain.RunRecord, error)

	// FindMove returns the ID of the newest run that moved a file to path.
	FindMove(path string) (string, bool, error)

	// Trim keeps the newest keep runs.
	Trim(keep int) error

	Close() error
}
