package rebuild

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/populate"
	"github.com/poiesic/careersearch/storage"
)

// BatchProcessor populates a batch of institutes and stores the suggestions.
type BatchProcessor struct {
	repo      storage.SuggestionRepository
	populator *populate.Populator
	pool      *ants.Pool
	backoff   Backoff
}

// BatchResult counts what one batch contributed.
type BatchResult struct {
	Institutes  int
	Skipped     int
	Suggestions int
}

// NewBatchProcessor creates a new batch processor.
// pool: worker pool used to populate institutes concurrently
// backoff: retry policy for the bulk insert
func NewBatchProcessor(repo storage.SuggestionRepository, populator *populate.Populator, pool *ants.Pool, backoff Backoff) *BatchProcessor {
	return &BatchProcessor{
		repo:      repo,
		populator: populator,
		pool:      pool,
		backoff:   backoff,
	}
}

// Process populates institutes and bulk-inserts the resulting suggestions.
// The batch is split into one chunk per pool worker. Suggestions keep the
// order of their institutes within the batch, and suggestions sharing an ID
// are stored and counted once.
func (bp *BatchProcessor) Process(ctx context.Context, institutes []*core.Institute) (BatchResult, error) {
	result := BatchResult{Institutes: len(institutes)}
	if len(institutes) == 0 {
		return result, nil
	}

	workers := max(bp.pool.Cap(), 1)
	chunkSize := (len(institutes) + workers - 1) / workers
	chunks := (len(institutes) + chunkSize - 1) / chunkSize

	perChunk := make([][]*core.Suggestion, chunks)
	skipped := make([]int, chunks)
	var wg sync.WaitGroup
	for c := range chunks {
		chunk := institutes[c*chunkSize : min((c+1)*chunkSize, len(institutes))]
		wg.Add(1)
		err := bp.pool.Submit(func() {
			defer wg.Done()
			perChunk[c], skipped[c] = bp.populator.PopulateAll(chunk)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return result, fmt.Errorf("failed to schedule populate: %w", err)
		}
	}
	wg.Wait()

	seen := make(map[core.ID]struct{})
	var suggestions []*core.Suggestion
	for c, chunk := range perChunk {
		result.Skipped += skipped[c]
		for _, s := range chunk {
			if _, dup := seen[s.ID]; dup {
				bp.backoff.logger().Warn("dropping duplicate suggestion",
					"id", s.ID, "publicId", s.PublicID, "type", s.Type, "name", s.Name)
				continue
			}
			seen[s.ID] = struct{}{}
			suggestions = append(suggestions, s)
		}
	}
	if len(suggestions) == 0 {
		return result, nil
	}

	// Content-derived IDs make a retried insert overwrite rather than duplicate
	err := bp.backoff.Do(ctx, func(ctx context.Context) error {
		_, err := bp.repo.AddSuggestions(ctx, suggestions...)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("failed to insert %d suggestions: %w", len(suggestions), err)
	}

	result.Suggestions = len(suggestions)
	return result, nil
}
