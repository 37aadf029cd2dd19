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
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/storage"
)

// instituteChunkSize bounds how many institutes go into one transaction.
const instituteChunkSize = 256

// InstituteRepository implements storage.InstituteRepository for BadgerDB.
type InstituteRepository struct {
	backend *Backend
}

var _ storage.InstituteRepository = (*InstituteRepository)(nil)

// NewInstituteRepository creates a new InstituteRepository.
func NewInstituteRepository(backend *Backend) *InstituteRepository {
	return &InstituteRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *InstituteRepository) Close() error {
	return nil
}

// PutInstitutes inserts or replaces institutes keyed by PublicID.
func (r *InstituteRepository) PutInstitutes(ctx context.Context, institutes ...*core.Institute) error {
	for _, inst := range institutes {
		if err := core.ValidateInstitute(inst); err != nil {
			return err
		}
	}

	for start := 0; start < len(institutes); start += instituteChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+instituteChunkSize, len(institutes))
		if err := r.putChunk(institutes[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *InstituteRepository) putChunk(institutes []*core.Institute) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, inst := range institutes {
			// Slug must not belong to a different institute
			owner, err := readString(tx, makeInstituteSlugKey(inst.Slug))
			if err != nil {
				return err
			}
			if owner != "" && owner != inst.PublicID {
				return fmt.Errorf("%w: slug %q already used by %s", storage.ErrDuplicateKey, inst.Slug, owner)
			}

			old, err := r.readInstitute(tx, makeInstituteKey(inst.PublicID))
			if err != nil {
				return err
			}
			if old != nil {
				inst.InsertedAt = old.InsertedAt
				if old.Slug != inst.Slug {
					if err := tx.Delete(makeInstituteSlugKey(old.Slug)); err != nil {
						return err
					}
				}
			} else if inst.InsertedAt.IsZero() {
				inst.InsertedAt = now
			}
			inst.UpdatedAt = now

			value, err := storage.MarshalInstitute(inst)
			if err != nil {
				return err
			}
			if err := tx.Set(makeInstituteKey(inst.PublicID), value); err != nil {
				return err
			}
			if err := tx.Set(makeInstituteSlugKey(inst.Slug), []byte(inst.PublicID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetInstitute retrieves an institute by PublicID.
func (r *InstituteRepository) GetInstitute(ctx context.Context, publicID string) (*core.Institute, error) {
	var inst *core.Institute
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		inst, err = r.readInstitute(tx, makeInstituteKey(publicID))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, storage.ErrNotFound
	}
	return inst, nil
}

// GetInstituteBySlug retrieves an institute by slug.
func (r *InstituteRepository) GetInstituteBySlug(ctx context.Context, slug string) (*core.Institute, error) {
	var inst *core.Institute
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		publicID, err := readString(tx, makeInstituteSlugKey(slug))
		if err != nil || publicID == "" {
			return err
		}
		inst, err = r.readInstitute(tx, makeInstituteKey(publicID))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, storage.ErrNotFound
	}
	return inst, nil
}

// ListInstitutes returns every institute ordered by PublicID.
func (r *InstituteRepository) ListInstitutes(ctx context.Context) ([]*core.Institute, error) {
	var institutes []*core.Institute
	err := r.backend.ScanPrefix([]byte(institutePrefix), func(_, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		inst, err := storage.UnmarshalInstitute(value)
		if err != nil {
			return err
		}
		institutes = append(institutes, inst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return institutes, nil
}

// CountInstitutes returns the number of stored institutes.
func (r *InstituteRepository) CountInstitutes(ctx context.Context) (int, error) {
	return r.backend.CountPrefix([]byte(institutePrefix))
}

// readInstitute reads an institute by key. Returns nil, nil if not found.
func (r *InstituteRepository) readInstitute(tx *badger.Txn, key []byte) (*core.Institute, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var inst *core.Institute
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		inst, unmarshalErr = storage.UnmarshalInstitute(val)
		return unmarshalErr
	})
	return inst, err
}

// readString reads a string value. Returns "" if the key is missing.
func readString(tx *badger.Txn, key []byte) (string, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}
