package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"employee-assistant/models"
)

type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{col: db.Collection("conversations")}
}

func (r *ConversationRepository) Insert(ctx context.Context, turn models.ConversationTurn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, turn)
	return err
}

// RecentByUser returns the user's latest turns, newest first.
func (r *ConversationRepository) RecentByUser(ctx context.Context, userID string, limit int) ([]models.ConversationTurn, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"thinking_steps": 0})
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

// BySession returns every turn of one session owned by userID, oldest first.
func (r *ConversationRepository) BySession(ctx context.Context, userID, sessionID string) ([]models.ConversationTurn, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	return r.find(ctx, bson.M{"user_id": userID, "session_id": sessionID}, opts)
}

func (r *ConversationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.ConversationTurn, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ConversationTurn{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
