package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"employee-assistant/models"
)

type AnswerLogRepository struct {
	col *mongo.Collection
}

func NewAnswerLogRepository(db *mongo.Database) *AnswerLogRepository {
	return &AnswerLogRepository{col: db.Collection("answer_logs")}
}

func (r *AnswerLogRepository) Insert(ctx context.Context, log models.AnswerLog) error {
	if log.RequestedAt.IsZero() {
		log.RequestedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, log)
	return err
}
