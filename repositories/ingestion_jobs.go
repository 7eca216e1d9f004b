package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"employee-assistant/models"
)

type IngestionJobRepository struct {
	col *mongo.Collection
}

func NewIngestionJobRepository(db *mongo.Database) *IngestionJobRepository {
	return &IngestionJobRepository{col: db.Collection("ingestion_jobs")}
}

// UpsertByDocument records a job keyed by document_id so a redelivered event does not duplicate it.
func (r *IngestionJobRepository) UpsertByDocument(ctx context.Context, job models.IngestionJob) error {
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	filter := bson.M{"document_id": job.DocumentID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"started_at": job.StartedAt,
		},
		"$set": bson.M{
			"knowledge_base_id": job.KnowledgeBaseID,
			"folder":            job.Folder,
			"document_id":       job.DocumentID,
			"file_name":         job.FileName,
			"status":            job.Status,
		},
	}
	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
