package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const IngestionStatusStarted = "STARTED"

// IngestionJob records that a document was handed to a knowledge base.
// Collection: ingestion_jobs
type IngestionJob struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	KnowledgeBaseID string             `bson:"knowledge_base_id" json:"knowledge_base_id"`
	Folder          string             `bson:"folder" json:"folder"`
	DocumentID      string             `bson:"document_id" json:"document_id"`
	FileName        string             `bson:"file_name" json:"file_name"`
	Status          string             `bson:"status" json:"status"`
	StartedAt       time.Time          `bson:"started_at" json:"started_at"`
}
