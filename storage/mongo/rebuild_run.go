package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/storage"
)

// RebuildRunRepository implements storage.RebuildRunRepository for MongoDB.
type RebuildRunRepository struct {
	coll *mongo.Collection
}

var _ storage.RebuildRunRepository = (*RebuildRunRepository)(nil)

// NewRebuildRunRepository creates a new RebuildRunRepository.
func NewRebuildRunRepository(s *Store) *RebuildRunRepository {
	return &RebuildRunRepository{coll: s.db.Collection(rebuildRunsCollection)}
}

// Close is a no-op; the store owns the client.
func (r *RebuildRunRepository) Close() error {
	return nil
}

// SaveRebuildRun upserts a run keyed by its ID.
func (r *RebuildRunRepository) SaveRebuildRun(ctx context.Context, run *core.RebuildRun) error {
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": run.ID}, run, options.Replace().SetUpsert(true))
	return err
}

// LatestRebuildRun returns the most recently started run.
func (r *RebuildRunRepository) LatestRebuildRun(ctx context.Context) (*core.RebuildRun, error) {
	var run core.RebuildRun
	err := r.coll.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "startedAt", Value: -1}})).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRebuildRuns returns up to limit runs, most recent first.
func (r *RebuildRunRepository) ListRebuildRuns(ctx context.Context, limit int) ([]*core.RebuildRun, error) {
	if limit <= 0 {
		return nil, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var runs []*core.RebuildRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
