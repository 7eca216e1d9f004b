package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationTurn is one question/answer round trip.
// Collection: conversations
type ConversationTurn struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	Username      string             `bson:"username" json:"username"`
	SessionID     string             `bson:"session_id" json:"session_id"`
	UserQuery     string             `bson:"user_query" json:"user_query"`
	Response      string             `bson:"response" json:"response"`
	ThinkingSteps []string           `bson:"thinking_steps" json:"thinking_steps"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
}
