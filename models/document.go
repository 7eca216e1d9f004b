package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is an uploaded knowledge base file.
// Collection: documents
type Document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Folder      string             `bson:"folder" json:"folder"`
	FileName    string             `bson:"file_name" json:"file_name"`
	ContentType string             `bson:"content_type" json:"content_type"`
	Size        int                `bson:"size" json:"size"`
	Data        []byte             `bson:"data" json:"-"`
	UploadedBy  string             `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt  time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}
