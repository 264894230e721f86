package persistence

import (
	"context"

	"clipbridge-api/domain/model"
	"clipbridge-api/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// AuthEventRepository appends authStatus transitions to Mongo. The client may
// be nil (Mongo unavailable); every method then degrades to a no-op.
type AuthEventRepository struct {
	mongoDb *mongo.Client
}

func NewAuthEventRepository(mongoDb *mongo.Client) *AuthEventRepository {
	return &AuthEventRepository{mongoDb: mongoDb}
}

func (r *AuthEventRepository) collection() *mongo.Collection {
	return r.mongoDb.Database("clipbridge").Collection("auth_events")
}

func (r *AuthEventRepository) Insert(ctx context.Context, event *model.AuthEvent) error {
	if r.mongoDb == nil {
		logger.GetLogger().Debug("MongoDB client is nil - skipping auth event insert")
		return nil
	}
	_, err := r.collection().InsertOne(ctx, event)
	return err
}

func (r *AuthEventRepository) ListByChannel(ctx context.Context, channelID string, limit int64) ([]*model.AuthEvent, error) {
	if r.mongoDb == nil {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection().Find(ctx, bson.D{{Key: "channelId", Value: channelID}}, opts)
	if err != nil {
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	var events []*model.AuthEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
