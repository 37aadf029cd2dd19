// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"

	"github.com/poiesic/careersearch/core"
)

// Repository provides operations shared by all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// InstituteRepository provides access to the institute source store.
// The search core only reads from it; writes exist for seeding and import.
type InstituteRepository interface {
	Repository
	// PutInstitutes inserts or replaces institutes keyed by PublicID.
	// Each institute is validated first; the batch is rejected if any is invalid.
	// Returns ErrDuplicateKey if a slug is already used by another institute.
	PutInstitutes(ctx context.Context, institutes ...*core.Institute) error

	// GetInstitute retrieves an institute by PublicID.
	// Returns ErrNotFound if it doesn't exist.
	GetInstitute(ctx context.Context, publicID string) (*core.Institute, error)

	// GetInstituteBySlug retrieves an institute by slug.
	// Returns ErrNotFound if it doesn't exist.
	GetInstituteBySlug(ctx context.Context, slug string) (*core.Institute, error)

	// ListInstitutes returns every institute ordered by PublicID.
	ListInstitutes(ctx context.Context) ([]*core.Institute, error)

	// CountInstitutes returns the number of stored institutes.
	CountInstitutes(ctx context.Context) (int, error)
}

// SuggestionRepository provides operations on the derived suggestion store.
type SuggestionRepository interface {
	Repository
	// AddSuggestions bulk-inserts suggestions. IDs are derived from content
	// when zero, so inserting the same suggestion twice overwrites it.
	// Returns the suggestions with IDs populated.
	AddSuggestions(ctx context.Context, suggestions ...*core.Suggestion) ([]*core.Suggestion, error)

	// DeleteAll removes every suggestion and returns how many were removed.
	DeleteAll(ctx context.Context) (int, error)

	// ListSuggestions returns every suggestion ordered by ID.
	ListSuggestions(ctx context.Context) ([]*core.Suggestion, error)

	// GetSuggestionsByPublicID returns the suggestions derived from one institute.
	GetSuggestionsByPublicID(ctx context.Context, publicID string) ([]*core.Suggestion, error)

	// CountSuggestions returns the number of stored suggestions.
	CountSuggestions(ctx context.Context) (int, error)
}

// RebuildRunRepository records the history of suggestion rebuilds.
type RebuildRunRepository interface {
	Repository
	// SaveRebuildRun inserts or replaces a run keyed by its ID.
	SaveRebuildRun(ctx context.Context, run *core.RebuildRun) error

	// LatestRebuildRun returns the most recently started run.
	// Returns nil, nil if no run has been recorded.
	LatestRebuildRun(ctx context.Context) (*core.RebuildRun, error)

	// ListRebuildRuns returns up to limit runs, most recent first.
	ListRebuildRuns(ctx context.Context, limit int) ([]*core.RebuildRun, error)
}

// Repositories bundles the repositories a backend provides.
type Repositories struct {
	Institutes  InstituteRepository
	Suggestions SuggestionRepository
	RebuildRuns RebuildRunRepository
}

// Close closes every repository, returning the first error.
func (r *Repositories) Close() error {
	var first error
	for _, repo := range []Repository{r.RebuildRuns, r.Suggestions, r.Institutes} {
		if repo == nil {
			continue
		}
		if err := repo.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
