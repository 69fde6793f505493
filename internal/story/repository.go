package story

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const CollectionName = "stories"

type Repository interface {
	UpsertByStoryID(ctx context.Context, s *Story) (bool, error)
}

type mongoRepository struct {
	col    *mongo.Collection
	logger *zap.Logger
}

func NewMongoStoryRepository(db *mongo.Database, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	repo := &mongoRepository{
		col:    db.Collection(CollectionName),
		logger: logger,
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes keeps one mirror document per CMS story id.
func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "storyId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "updatedAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "publishDate", Value: -1}},
		},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		r.logger.Error("failed to create indexes", zap.Error(err))
	}
	return err
}

// UpsertByStoryID inserts a story the mirror has not seen yet, or rewrites it
// when the CMS reports a newer updatedAt for the story or its featured image.
// Returns true if a document was created or updated.
func (r *mongoRepository) UpsertByStoryID(ctx context.Context, s *Story) (bool, error) {
	now := time.Now().UTC()

	res := r.col.FindOne(ctx, bson.M{"storyId": s.ID})
	if errors.Is(res.Err(), mongo.ErrNoDocuments) {
		r.logger.Debug("inserting new story", zap.String("story_id", s.ID))

		s.SyncedAt = now
		if _, err := r.col.InsertOne(ctx, s); err != nil {
			return false, err
		}
		return true, nil
	}
	if res.Err() != nil {
		return false, res.Err()
	}

	var existing Story
	if err := res.Decode(&existing); err != nil {
		return false, err
	}

	if !shouldReplace(&existing, s) {
		return false, nil
	}

	r.logger.Debug("updating story with newer updatedAt", zap.String("story_id", s.ID))

	s.SyncedAt = now
	_, err := r.col.ReplaceOne(ctx, bson.M{"storyId": s.ID}, s)
	if err != nil {
		return false, err
	}
	return true, nil
}

func shouldReplace(existing, incoming *Story) bool {
	if !incoming.UpdatedAt.IsZero() && incoming.UpdatedAt.After(existing.UpdatedAt) {
		return true
	}

	switch {
	case incoming.FeaturedImage == nil && existing.FeaturedImage == nil:
		return false
	case incoming.FeaturedImage == nil || existing.FeaturedImage == nil:
		return true
	}
	return incoming.FeaturedImage.UpdatedAt.After(existing.FeaturedImage.UpdatedAt)
}
