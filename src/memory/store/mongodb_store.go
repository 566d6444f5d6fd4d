package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agentrelay/go-agent/src/memory/model"
)

// MongoStore is a VectorStore over MongoDB Atlas. Similarity search uses the
// $vectorSearch aggregation stage against an index named "vector_index".
// Record IDs come from a findAndModify counter in the "counters" collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	counters   *mongo.Collection
}

const mongoCloseTimeout = 5 * time.Second

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		return nil, errors.New("mongo collection name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	db := client.Database(database)
	return &MongoStore{
		client:     client,
		collection: db.Collection(collection),
		counters:   db.Collection("counters"),
	}, nil
}

func (ms *MongoStore) StoreMemory(ctx context.Context, sessionID, content string, metadata map[string]any, embedding []float32) error {
	if ms == nil || ms.collection == nil {
		return nil
	}
	id, err := ms.nextID(ctx)
	if err != nil {
		return err
	}
	_, err = ms.collection.InsertOne(ctx, bson.M{
		"_id":        id,
		"session_id": sessionID,
		"content":    content,
		"metadata":   model.EncodeMetadata(metadata),
		"embedding":  toFloat64s(embedding),
		"created_at": time.Now().UTC(),
	})
	return err
}

func (ms *MongoStore) SearchMemory(ctx context.Context, queryEmbedding []float32, limit int) ([]model.MemoryRecord, error) {
	if ms == nil || ms.collection == nil || limit <= 0 {
		return nil, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: "vector_index"},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: toFloat64s(queryEmbedding)},
			{Key: "numCandidates", Value: int64(limit * 10)},
			{Key: "limit", Value: int64(limit)},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
	cursor, err := ms.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.MemoryRecord
	for cursor.Next(ctx) {
		var doc mongoMemoryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, doc.toRecord())
	}
	return records, cursor.Err()
}

func (ms *MongoStore) DeleteMemory(ctx context.Context, ids []int64) error {
	if ms == nil || ms.collection == nil || len(ids) == 0 {
		return nil
	}
	_, err := ms.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (ms *MongoStore) Iterate(ctx context.Context, fn func(model.MemoryRecord) bool) error {
	if ms == nil || ms.collection == nil {
		return nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := ms.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var doc mongoMemoryDoc
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		if !fn(doc.toRecord()) {
			break
		}
	}
	return cursor.Err()
}

func (ms *MongoStore) Count(ctx context.Context) (int, error) {
	if ms == nil || ms.collection == nil {
		return 0, nil
	}
	count, err := ms.collection.CountDocuments(ctx, bson.M{})
	return int(count), err
}

// CreateSchema creates the supporting indexes. The vector search index itself
// is managed through Atlas and cannot be created from the driver.
func (ms *MongoStore) CreateSchema(ctx context.Context, _ string) error {
	if ms == nil || ms.collection == nil {
		return nil
	}
	_, err := ms.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("session_created_at"),
	})
	return err
}

func (ms *MongoStore) Close() error {
	if ms == nil || ms.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

func (ms *MongoStore) nextID(ctx context.Context) (int64, error) {
	if ms.counters == nil {
		return 0, errors.New("mongo counter collection is not configured")
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	res := ms.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": ms.collection.Name()},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts)
	if res.Err() != nil {
		return 0, res.Err()
	}
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	if err := res.Decode(&doc); err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

type mongoMemoryDoc struct {
	ID        int64     `bson:"_id"`
	SessionID string    `bson:"session_id"`
	Content   string    `bson:"content"`
	Metadata  string    `bson:"metadata"`
	Embedding []float64 `bson:"embedding"`
	CreatedAt time.Time `bson:"created_at"`
	Score     float64   `bson:"score,omitempty"`
}

func (doc mongoMemoryDoc) toRecord() model.MemoryRecord {
	return model.MemoryRecord{
		ID:        doc.ID,
		SessionID: doc.SessionID,
		Content:   doc.Content,
		Metadata:  doc.Metadata,
		Embedding: toFloat32s(doc.Embedding),
		Score:     doc.Score,
		CreatedAt: doc.CreatedAt,
	}
}

func toFloat64s(vec []float32) []float64 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

func toFloat32s(vec []float64) []float32 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

var (
	_ VectorStore       = (*MongoStore)(nil)
	_ SchemaInitializer = (*MongoStore)(nil)
)
