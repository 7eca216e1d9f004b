package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"employee-assistant/cmd/internal/logger"
	"employee-assistant/config"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init connects the global Mongo client and ensures indexes.
func Init(ctx context.Context, cfg config.MongoConfig) error {
	var initErr error
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			initErr = err
			return
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(cfg.Database)

		if err := ensureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		logger.InfoWithFields("mongodb connected and indexes ensured", logger.Fields{"database": cfg.Database})
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Disconnect closes the global client if it was opened.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		// 사용자별 최신 대화 목록, 세션별 기록 조회
		"conversations": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_user_timestamp_desc"),
			},
			{
				Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: 1}},
				Options: options.Index().SetName("idx_session_timestamp"),
			},
		},
		"documents": {
			{
				Keys:    bson.D{{Key: "folder", Value: 1}, {Key: "uploaded_at", Value: -1}},
				Options: options.Index().SetName("idx_folder_uploaded_at"),
			},
		},
		"ingestion_jobs": {
			{
				Keys:    bson.D{{Key: "document_id", Value: 1}},
				Options: options.Index().SetName("uniq_document_id").SetUnique(true),
			},
		},
		"answer_logs": {
			{
				Keys:    bson.D{{Key: "requested_at", Value: -1}},
				Options: options.Index().SetName("idx_requested_at_desc"),
			},
		},
	}

	for name, models := range indexes {
		if _, err := d.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
