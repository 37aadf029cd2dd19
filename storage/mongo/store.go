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

// Package mongo implements the storage repositories on MongoDB.
//
// Collections:
//   - institutes: one document per institute, _id is the public ID, unique slug index
//   - search_suggestions: one document per suggestion, _id is the hex suggestion ID
//   - rebuild_runs: one document per rebuild, _id is the run ID
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poiesic/careersearch/storage"
)

const (
	institutesCollection  = "institutes"
	suggestionsCollection = "search_suggestions"
	rebuildRunsCollection = "rebuild_runs"

	defaultConnectTimeout = 10 * time.Second
)

// Store wraps a MongoDB client and the database holding the collections.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// Open connects to uri, verifies the connection and ensures indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(database),
		logger: slog.Default().With("component", "mongo", "database", database),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(institutesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create institute slug index: %w", err)
	}

	_, err = s.db.Collection(suggestionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "publicId", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "searchText", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create suggestion indexes: %w", err)
	}

	_, err = s.db.Collection(rebuildRunsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "startedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create rebuild run index: %w", err)
	}
	return nil
}

// NewRepositories creates every repository over an open store.
func NewRepositories(s *Store) *storage.Repositories {
	return &storage.Repositories{
		Institutes:  NewInstituteRepository(s),
		Suggestions: NewSuggestionRepository(s),
		RebuildRuns: NewRebuildRunRepository(s),
	}
}
