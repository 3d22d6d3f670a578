package io

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/holly-cummins/extensions.io/pkg/enrich"
)

type bulkWriter interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
}

// MongoSink upserts records into a MongoDB collection, one document per
// record key.
type MongoSink struct {
	client *mongo.Client
	coll   bulkWriter
}

// DialMongo connects to uri and returns a sink writing to
// database.collection.
func DialMongo(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoSink{client: client, coll: client.Database(database).Collection(collection)}, nil
}

// Write upserts every record of res and returns how many documents were
// inserted or changed.
func (s *MongoSink) Write(ctx context.Context, res *enrich.Result) (int64, error) {
	if len(res.Records) == 0 {
		return 0, nil
	}
	models, err := upserts(res)
	if err != nil {
		return 0, err
	}
	out, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("write records: %w", err)
	}
	return out.UpsertedCount + out.ModifiedCount, nil
}

// Close disconnects the client.
func (s *MongoSink) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func upserts(res *enrich.Result) ([]mongo.WriteModel, error) {
	models := make([]mongo.WriteModel, 0, len(res.Records))
	for _, rec := range res.Records {
		doc, err := recordDocument(rec)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.Key, err)
		}
		doc["run_id"] = res.RunID
		doc["updated_at"] = res.StartedAt.Add(res.Duration).UTC().Truncate(time.Millisecond)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"key": rec.Key}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	return models, nil
}

// recordDocument converts a record through its JSON form so the stored
// field names match the result file.
func recordDocument(rec *enrich.Record) (bson.M, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
