package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/storage"
)

// insertChunkSize bounds the documents sent in one InsertMany call.
const insertChunkSize = 1000

// suggestionDocument stores the ID as hex; BSON has no unsigned 64-bit integer.
type suggestionDocument struct {
	ID              string `bson:"_id"`
	core.Suggestion `bson:",inline"`
}

func (d *suggestionDocument) toSuggestion() (*core.Suggestion, error) {
	id, err := core.ParseID(d.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad suggestion id %q: %w", storage.ErrSerializationFailed, d.ID, err)
	}
	s := d.Suggestion
	s.ID = id
	return &s, nil
}

// SuggestionRepository implements storage.SuggestionRepository for MongoDB.
type SuggestionRepository struct {
	coll *mongo.Collection
}

var _ storage.SuggestionRepository = (*SuggestionRepository)(nil)

// NewSuggestionRepository creates a new SuggestionRepository.
func NewSuggestionRepository(s *Store) *SuggestionRepository {
	return &SuggestionRepository{coll: s.db.Collection(suggestionsCollection)}
}

// Close is a no-op; the store owns the client.
func (r *SuggestionRepository) Close() error {
	return nil
}

// AddSuggestions bulk-upserts suggestions in chunks.
func (r *SuggestionRepository) AddSuggestions(ctx context.Context, suggestions ...*core.Suggestion) ([]*core.Suggestion, error) {
	for _, s := range suggestions {
		if err := core.ValidateSuggestion(s); err != nil {
			return nil, err
		}
		if s.ID == 0 {
			s.ID = core.IDFromContent(s.Key())
		}
	}

	for start := 0; start < len(suggestions); start += insertChunkSize {
		end := min(start+insertChunkSize, len(suggestions))
		models := make([]mongo.WriteModel, 0, end-start)
		for _, s := range suggestions[start:end] {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": s.ID.String()}).
				SetReplacement(suggestionDocument{ID: s.ID.String(), Suggestion: *s}).
				SetUpsert(true))
		}
		if _, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return nil, err
		}
	}
	return suggestions, nil
}

// DeleteAll removes every suggestion.
func (r *SuggestionRepository) DeleteAll(ctx context.Context) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

// ListSuggestions returns every suggestion ordered by ID.
func (r *SuggestionRepository) ListSuggestions(ctx context.Context) ([]*core.Suggestion, error) {
	return r.find(ctx, bson.M{})
}

// GetSuggestionsByPublicID returns the suggestions derived from one institute.
func (r *SuggestionRepository) GetSuggestionsByPublicID(ctx context.Context, publicID string) ([]*core.Suggestion, error) {
	return r.find(ctx, bson.M{"publicId": publicID})
}

// CountSuggestions returns the number of stored suggestions.
func (r *SuggestionRepository) CountSuggestions(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

func (r *SuggestionRepository) find(ctx context.Context, filter bson.M) ([]*core.Suggestion, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var suggestions []*core.Suggestion
	for cursor.Next(ctx) {
		var doc suggestionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		s, err := doc.toSuggestion()
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, cursor.Err()
}
