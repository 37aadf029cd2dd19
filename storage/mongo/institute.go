package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/storage"
)

type instituteDocument struct {
	ID             string `bson:"_id"`
	core.Institute `bson:",inline"`
}

// InstituteRepository implements storage.InstituteRepository for MongoDB.
type InstituteRepository struct {
	coll *mongo.Collection
}

var _ storage.InstituteRepository = (*InstituteRepository)(nil)

// NewInstituteRepository creates a new InstituteRepository.
func NewInstituteRepository(s *Store) *InstituteRepository {
	return &InstituteRepository{coll: s.db.Collection(institutesCollection)}
}

// Close is a no-op; the store owns the client.
func (r *InstituteRepository) Close() error {
	return nil
}

// PutInstitutes upserts institutes keyed by PublicID.
func (r *InstituteRepository) PutInstitutes(ctx context.Context, institutes ...*core.Institute) error {
	if len(institutes) == 0 {
		return nil
	}

	ids := make([]string, 0, len(institutes))
	for _, inst := range institutes {
		if err := core.ValidateInstitute(inst); err != nil {
			return err
		}
		ids = append(ids, inst.PublicID)
	}

	// Carry InsertedAt over from existing documents
	existing := make(map[string]time.Time, len(ids))
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"insertedAt": 1}))
	if err != nil {
		return err
	}
	var prior []instituteDocument
	if err := cursor.All(ctx, &prior); err != nil {
		return err
	}
	for _, doc := range prior {
		existing[doc.ID] = doc.InsertedAt
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(institutes))
	for _, inst := range institutes {
		if at, ok := existing[inst.PublicID]; ok && !at.IsZero() {
			inst.InsertedAt = at
		} else if inst.InsertedAt.IsZero() {
			inst.InsertedAt = now
		}
		inst.UpdatedAt = now
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": inst.PublicID}).
			SetReplacement(instituteDocument{ID: inst.PublicID, Institute: *inst}).
			SetUpsert(true))
	}

	if _, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %w", storage.ErrDuplicateKey, err)
		}
		return err
	}
	return nil
}

// GetInstitute retrieves an institute by PublicID.
func (r *InstituteRepository) GetInstitute(ctx context.Context, publicID string) (*core.Institute, error) {
	return r.findOne(ctx, bson.M{"_id": publicID})
}

// GetInstituteBySlug retrieves an institute by slug.
func (r *InstituteRepository) GetInstituteBySlug(ctx context.Context, slug string) (*core.Institute, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// ListInstitutes returns every institute ordered by PublicID.
func (r *InstituteRepository) ListInstitutes(ctx context.Context) ([]*core.Institute, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []instituteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	institutes := make([]*core.Institute, 0, len(docs))
	for i := range docs {
		inst := docs[i].Institute
		institutes = append(institutes, &inst)
	}
	return institutes, nil
}

// CountInstitutes returns the number of stored institutes.
func (r *InstituteRepository) CountInstitutes(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (r *InstituteRepository) findOne(ctx context.Context, filter bson.M) (*core.Institute, error) {
	var doc instituteDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &doc.Institute, nil
}
