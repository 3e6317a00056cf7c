package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"relocate/internal/adapter/fs"
	"relocate/internal/domain"
	"relocate/internal/port"
)

// RelocateUseCase runs a relocation pass over an output directory.
type RelocateUseCase struct {
	loader  *fs.Loader
	writer  *fs.Writer
	mutator *Mutator
	ledger  port.Ledger
	keep    int
	now     func() time.Time
}

// NewRelocateUseCase creates a new relocate use case. ledger may be nil;
// keep <= 0 disables trimming.
func NewRelocateUseCase(
	loader *fs.Loader,
	writer *fs.Writer,
	mutator *Mutator,
	ledger port.Ledger,
	keep int,
) *RelocateUseCase {
	return &RelocateUseCase{
		loader:  loader,
		writer:  writer,
		mutator: mutator,
		ledger:  ledger,
		keep:    keep,
		now:     time.Now,
	}
}

// RelocateOptions controls a single run.
type RelocateOptions struct {
	DryRun   bool
	Progress port.ProgressFunc
}

// Relocate loads root, mutates it, and writes the result back unless this
// is a dry run. The run is recorded in the ledger when one is configured.
func (u *RelocateUseCase) Relocate(ctx context.Context, root string, opts RelocateOptions) (*domain.RunRecord, error) {
	started := u.now()

	b, err := u.loader.Load(ctx, root, opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("failed to load bundle: %w", err)
	}

	result, err := u.mutator.Mutate(b)
	if err != nil {
		return nil, fmt.Errorf("relocation failed: %w", err)
	}

	if !opts.DryRun && result.Changed() {
		if err := u.writer.Write(ctx, root, b, result, opts.Progress); err != nil {
			return nil, fmt.Errorf("failed to write bundle: %w", err)
		}
	}

	id, err := newRunID()
	if err != nil {
		return nil, err
	}
	run := &domain.RunRecord{
		ID:        id,
		Root:      root,
		StartedAt: started,
		Duration:  u.now().Sub(started),
		DryRun:    opts.DryRun,
		Result:    *result,
	}

	if u.ledger != nil {
		if err := u.ledger.PutRun(*run); err != nil {
			return run, fmt.Errorf("failed to record run: %w", err)
		}
		if u.keep > 0 {
			if err := u.ledger.Trim(u.keep); err != nil {
				log.Warn().Err(err).Msg("failed to trim ledger")
			}
		}
	}

	log.Info().
		Str("run", run.ID).
		Bool("dry_run", opts.DryRun).
		Dur("took", run.Duration).
		Msg("relocate run finished")
	return run, nil
}

// newRunID returns a version 7 UUID; its text form sorts by creation time,
// which the ledgers rely on for newest-first listings.
func newRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate run id: %w", err)
	}
	return id.String(), nil
}
