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

// SuggestionRepository implements storage.SuggestionRepository for BadgerDB.
type SuggestionRepository struct {
	backend *Backend
}

var _ storage.SuggestionRepository = (*SuggestionRepository)(nil)

// NewSuggestionRepository creates a new SuggestionRepository.
func NewSuggestionRepository(backend *Backend) *SuggestionRepository {
	return &SuggestionRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *SuggestionRepository) Close() error {
	return nil
}

// AddSuggestions bulk-inserts suggestions through a write batch.
func (r *SuggestionRepository) AddSuggestions(ctx context.Context, suggestions ...*core.Suggestion) ([]*core.Suggestion, error) {
	for _, s := range suggestions {
		if err := core.ValidateSuggestion(s); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithWriteBatch(func(wb *badger.WriteBatch) error {
		for _, s := range suggestions {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.ID == 0 {
				s.ID = core.IDFromContent(s.Key())
			}

			value, err := storage.MarshalSuggestion(s)
			if err != nil {
				return err
			}
			if err := wb.Set(makeSuggestionKey(s.ID), value); err != nil {
				return err
			}
			if err := wb.Set(makeSuggestionPIDKey(s.PublicID, s.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// DeleteAll removes every suggestion and its index entries.
func (r *SuggestionRepository) DeleteAll(ctx context.Context) (int, error) {
	count, err := r.backend.CountPrefix([]byte(suggestionPrefix))
	if err != nil || count == 0 {
		return 0, err
	}
	if _, err := r.backend.DeletePrefix([]byte(suggestionPrefix), []byte(suggestionPIDPrefix)); err != nil {
		return 0, err
	}
	return count, nil
}

// ListSuggestions returns every suggestion ordered by ID.
func (r *SuggestionRepository) ListSuggestions(ctx context.Context) ([]*core.Suggestion, error) {
	var suggestions []*core.Suggestion
	err := r.backend.ScanPrefix([]byte(suggestionPrefix), func(_, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := storage.UnmarshalSuggestion(value)
		if err != nil {
			return err
		}
		suggestions = append(suggestions, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// GetSuggestionsByPublicID returns the suggestions derived from one institute.
func (r *SuggestionRepository) GetSuggestionsByPublicID(ctx context.Context, publicID string) ([]*core.Suggestion, error) {
	var suggestions []*core.Suggestion
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var ids []core.ID
		err := scanPrefix(tx, makePartialSuggestionPIDKey(publicID), false, func(key, _ []byte) error {
			ids = append(ids, suggestionIDFromPIDKey(key))
			return nil
		})
		if err != nil {
			return err
		}

		for _, id := range ids {
			item, err := tx.Get(makeSuggestionKey(id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				s, err := storage.UnmarshalSuggestion(val)
				if err != nil {
					return err
				}
				suggestions = append(suggestions, s)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// CountSuggestions returns the number of stored suggestions.
func (r *SuggestionRepository) CountSuggestions(ctx context.Context) (int, error) {
	return r.backend.CountPrefix([]byte(suggestionPrefix))
}
