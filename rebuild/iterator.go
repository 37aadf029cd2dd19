package rebuild

import (
	"context"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/storage"
)

const (
	// DefaultBatchSize is the default number of institutes handed out per batch
	DefaultBatchSize = 100
)

// InstituteIterator iterates over all institutes in batches.
type InstituteIterator struct {
	repo      storage.InstituteRepository
	batchSize int
}

// NewInstituteIterator creates a new institute iterator.
// batchSize: number of institutes per batch; non-positive values use DefaultBatchSize
func NewInstituteIterator(repo storage.InstituteRepository, batchSize int) *InstituteIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &InstituteIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of institutes.
// Iteration stops on the first error from fn or when all institutes are processed.
// Context cancellation is checked between batches.
func (it *InstituteIterator) ForEach(ctx context.Context, fn func([]*core.Institute) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	institutes, err := it.repo.ListInstitutes(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < len(institutes); i += it.batchSize {
		end := min(i+it.batchSize, len(institutes))

		if err := fn(institutes[i:end]); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
