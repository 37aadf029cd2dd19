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

package snapshot

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/storage"
)

// restoreChunk bounds the size of each repository write during Restore.
const restoreChunk = 500

// Snapshot is a portable copy of both stores.
type Snapshot struct {
	Institutes  []*core.Institute  `msgpack:"institutes"`
	Suggestions []*core.Suggestion `msgpack:"suggestions"`
	ExportedAt  time.Time          `msgpack:"exported_at"`
}

// Write encodes snap to w: header, then an lz4 stream of msgpack.
func Write(w io.Writer, snap *Snapshot) error {
	if err := WriteHeader(w); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	zw := lz4.NewWriter(w)
	if err := msgpack.NewEncoder(zw).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	return nil
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (*Snapshot, error) {
	if _, err := ReadHeader(r); err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := msgpack.NewDecoder(lz4.NewReader(r)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// Export reads both stores and writes them to w.
func Export(ctx context.Context, w io.Writer, institutes storage.InstituteRepository, suggestions storage.SuggestionRepository) (*Snapshot, error) {
	insts, err := institutes.ListInstitutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing institutes: %w", err)
	}
	suggs, err := suggestions.ListSuggestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}

	snap := &Snapshot{
		Institutes:  insts,
		Suggestions: suggs,
		ExportedAt:  time.Now().UTC(),
	}
	if err := Write(w, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Import reads a snapshot from r. It does not touch any store; see Restore.
func Import(ctx context.Context, r io.Reader) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Read(r)
}

// Restore upserts the snapshot's institutes and replaces every suggestion
// with the snapshot's. Like a rebuild it is not transactional.
func Restore(ctx context.Context, snap *Snapshot, institutes storage.InstituteRepository, suggestions storage.SuggestionRepository) error {
	for start := 0; start < len(snap.Institutes); start += restoreChunk {
		end := min(start+restoreChunk, len(snap.Institutes))
		if err := institutes.PutInstitutes(ctx, snap.Institutes[start:end]...); err != nil {
			return fmt.Errorf("restoring institutes: %w", err)
		}
	}

	if _, err := suggestions.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clearing suggestions: %w", err)
	}
	for start := 0; start < len(snap.Suggestions); start += restoreChunk {
		end := min(start+restoreChunk, len(snap.Suggestions))
		if _, err := suggestions.AddSuggestions(ctx, snap.Suggestions[start:end]...); err != nil {
			return fmt.Errorf("restoring suggestions: %w", err)
		}
	}
	return nil
}
