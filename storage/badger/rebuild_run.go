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

package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/storage"
)

// RebuildRunRepository implements storage.RebuildRunRepository for BadgerDB.
type RebuildRunRepository struct {
	backend *Backend
}

var _ storage.RebuildRunRepository = (*RebuildRunRepository)(nil)

// NewRebuildRunRepository creates a new RebuildRunRepository.
func NewRebuildRunRepository(backend *Backend) *RebuildRunRepository {
	return &RebuildRunRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *RebuildRunRepository) Close() error {
	return nil
}

// SaveRebuildRun persists a run. Saving the same run twice replaces it.
func (r *RebuildRunRepository) SaveRebuildRun(ctx context.Context, run *core.RebuildRun) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRebuildRunKey(run.StartedAt, run.ID)

		// Drop the previous entry if the start time moved
		prev, err := readString(tx, makeRebuildRunIndexKey(run.ID))
		if err != nil {
			return err
		}
		if prev != "" && prev != string(key) {
			if err := tx.Delete([]byte(prev)); err != nil {
				return err
			}
		}

		value, err := storage.MarshalRebuildRun(run)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeRebuildRunIndexKey(run.ID), key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LatestRebuildRun returns the most recently started run.
// Returns nil, nil if no run exists.
func (r *RebuildRunRepository) LatestRebuildRun(ctx context.Context) (*core.RebuildRun, error) {
	runs, err := r.ListRebuildRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// ListRebuildRuns returns up to limit runs, most recent first.
func (r *RebuildRunRepository) ListRebuildRuns(ctx context.Context, limit int) ([]*core.RebuildRun, error) {
	if limit <= 0 {
		return nil, nil
	}

	runs := make([]*core.RebuildRun, 0, limit)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(rebuildRunPrefix), true, func(_, value []byte) error {
			if len(runs) >= limit {
				return errStopScan
			}
			run, err := storage.UnmarshalRebuildRun(value)
			if err != nil {
				return err
			}
			runs = append(runs, run)
			return nil
		})
	}, false)
	if err != nil && err != errStopScan {
		return nil, err
	}
	return runs, nil
}
