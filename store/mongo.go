package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Mongo implements Store on a MongoDB database. Documents use string _id values.
type Mongo struct {
	db           *mongo.Database
	transactions bool
	log          *zap.Logger
}

// NewMongo wraps db. When transactions is false RunTransaction runs fn directly,
// which is what a standalone (non replica set) server requires.
func NewMongo(db *mongo.Database, transactions bool, logger *zap.Logger) *Mongo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mongo{db: db, transactions: transactions, log: logger.Named("store")}
}

func (m *Mongo) Create(ctx context.Context, collection string, doc any) (string, error) {
	d, id, err := withID(doc, func() string { return primitive.NewObjectID().Hex() })
	if err != nil {
		return "", err
	}
	if _, err := m.db.Collection(collection).InsertOne(ctx, d); err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	result, err := m.db.Collection(collection).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M(patch)},
	)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (bson.Raw, error) {
	raw, err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s/%s: %w", collection, id, err)
	}
	return raw, nil
}

func (m *Mongo) Query(ctx context.Context, collection string, filter Filter) ([]bson.Raw, error) {
	match := bson.M{}
	for k, v := range filter {
		match[k] = v
	}
	cursor, err := m.db.Collection(collection).Find(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := []bson.Raw{}
	for cursor.Next(ctx) {
		docs = append(docs, append(bson.Raw(nil), cursor.Current...))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return docs, nil
}

// Subscribe watches the collection's change stream and re-reads the filtered result
// set after every change. The first snapshot is delivered before Subscribe returns.
func (m *Mongo) Subscribe(ctx context.Context, collection string, filter Filter, onSnapshot SnapshotFunc) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := m.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", collection, err)
	}

	deliver := func() {
		docs, err := m.Query(ctx, collection, filter)
		if err != nil {
			if ctx.Err() == nil {
				m.log.Warn("snapshot query failed", zap.String("collection", collection), zap.Error(err))
			}
			return
		}
		onSnapshot(docs)
	}
	deliver()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			deliver()
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			m.log.Error("change stream stopped", zap.String("collection", collection), zap.Error(err))
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func (m *Mongo) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	products := m.db.Collection(CollectionProducts)

	var updated struct {
		Stock int `bson:"stock"`
	}
	err := products.FindOneAndUpdate(
		ctx,
		bson.M{"_id": productID, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == nil {
		return updated.Stock, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("decrement stock of %s: %w", productID, err)
	}

	n, err := products.CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil {
		return 0, fmt.Errorf("count product %s: %w", productID, err)
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return 0, ErrInsufficientStock
}

func (m *Mongo) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}

	session, err := m.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
