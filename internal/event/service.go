package event

import (
	"context"

	"hang-in-there/internal/story"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Publisher interface {
	PublishStoryUpdated(ctx context.Context, s *story.Story) error
}

// Service fans mirror writes out to the message bus.
type Service struct {
	col       *mongo.Collection
	publisher Publisher
	logger    *zap.Logger
}

func NewService(col *mongo.Collection, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		col:       col,
		publisher: publisher,
		logger:    logger,
	}
}

// changeEvent is the subset of a change stream document we read.
type changeEvent struct {
	OperationType string       `bson:"operationType"`
	FullDocument  *story.Story `bson:"fullDocument"`
}

func (s *Service) Run(ctx context.Context) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": bson.M{"$in": bson.A{"insert", "update", "replace"}}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := s.col.Watch(ctx, pipeline, opts)
	if err != nil {
		s.logger.Error("failed to open change stream", zap.Error(err))
		return
	}
	defer stream.Close(context.Background())

	s.logger.Info("watching story mirror change stream")

	for stream.Next(ctx) {
		st, ok := s.decode(stream.Current)
		if !ok {
			continue
		}

		if err := s.publisher.PublishStoryUpdated(ctx, st); err != nil {
			s.logger.Error("failed publishing story", zap.String("story_id", st.ID), zap.Error(err))
			continue
		}

		s.logger.Info("published story to message bus", zap.String("story_id", st.ID))
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.logger.Error("change stream closed with error", zap.Error(err))
	} else {
		s.logger.Info("change stream stopped")
	}
}

func (s *Service) decode(raw bson.Raw) (*story.Story, bool) {
	var ev changeEvent
	if err := bson.Unmarshal(raw, &ev); err != nil {
		s.logger.Warn("failed decoding change event", zap.Error(err))
		return nil, false
	}
	if ev.FullDocument == nil || ev.FullDocument.ID == "" {
		s.logger.Warn("skip change event without story", zap.String("operation", ev.OperationType))
		return nil, false
	}
	return ev.FullDocument, true
}
