package usecase

import (
	"fmt"
	"io"

	"relocate/internal/adapter/wire"
	"relocate/internal/domain"
)

// ManifestUseCase runs a relocation pass over a JSON bundle manifest.
type ManifestUseCase struct {
	mutator *Mutator
}

func NewManifestUseCase(mutator *Mutator) *ManifestUseCase {
	return &ManifestUseCase{mutator: mutator}
}

// Relocate decodes a manifest from r, mutates it and encodes it to w.
// Nothing is written when the pass fails.
func (u *ManifestUseCase) Relocate(r io.Reader, w io.Writer) (*domain.PassResult, error) {
	b, err := wire.Decode(r)
	if err != nil {
		return nil, err
	}

	result, err := u.mutator.Mutate(b)
	if err != nil {
		return nil, fmt.Errorf("relocation failed: %w", err)
	}

	if err := wire.Encode(w, b); err != nil {
		return nil, fmt.Errorf("failed to encode bundle: %w", err)
	}
	return result, nil
}
