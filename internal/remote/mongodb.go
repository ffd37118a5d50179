package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kerala-sedp/internal/config"
	"kerala-sedp/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// The current session is mirrored into a single well-known document so that
// a change stream on the collection doubles as the session push channel.
const (
	sessionsCollection = "sessions"
	currentSessionID   = "current"
)

type sessionDocument struct {
	ID      string         `bson:"_id"`
	Session models.Session `bson:"session"`
}

// Mongo implements the remote contract on a MongoDB deployment.
type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
}

func NewMongo(cfg *config.Config) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.MongoTimeout)*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	logrus.WithField("database", cfg.DatabaseName).Info("connected to MongoDB")

	return &Mongo{
		client:   client,
		database: client.Database(cfg.DatabaseName),
	}, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting from MongoDB: %w", err)
	}
	return nil
}

// mongoFilter converts a contract filter to bson, mapping the platform's
// "id" key onto Mongo's "_id".
func mongoFilter(filter map[string]interface{}) bson.M {
	out := bson.M{}
	for key, value := range filter {
		if key == "id" {
			key = "_id"
		}
		out[key] = value
	}
	return out
}

func (m *Mongo) Select(ctx context.Context, collection string, q Query, dest interface{}) error {
	filter := mongoFilter(q.Filter)

	opts := options.Find()
	if q.OrderBy != "" {
		direction := 1
		if q.Desc {
			direction = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: direction}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := m.database.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("select %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, dest); err != nil {
		return fmt.Errorf("select %s: decoding: %w", collection, err)
	}
	return nil
}

func (m *Mongo) Insert(ctx context.Context, collection string, record interface{}, dest interface{}) error {
	raw, err := bson.Marshal(record)
	if err != nil {
		return fmt.Errorf("insert %s: encoding: %w", collection, err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("insert %s: encoding: %w", collection, err)
	}
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = uuid.NewString()
	}

	if _, err := m.database.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}

	if dest != nil {
		err := m.database.Collection(collection).
			FindOne(ctx, bson.M{"_id": doc["_id"]}).
			Decode(dest)
		if err != nil {
			return fmt.Errorf("insert %s: reading back: %w", collection, err)
		}
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, collection string, filter, patch map[string]interface{}) error {
	_, err := m.database.Collection(collection).
		UpdateMany(ctx, mongoFilter(filter), bson.M{"$set": bson.M(patch)})
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, collection string, filter map[string]interface{}) error {
	_, err := m.database.Collection(collection).DeleteMany(ctx, mongoFilter(filter))
	if err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return nil
}

func (m *Mongo) CurrentSession(ctx context.Context) (*models.Session, error) {
	var doc sessionDocument
	err := m.database.Collection(sessionsCollection).
		FindOne(ctx, bson.M{"_id": currentSessionID}).
		Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if doc.Session.User == nil {
		return nil, nil
	}
	return &doc.Session, nil
}

func (m *Mongo) SessionChanges(ctx context.Context) (Subscription, error) {
	streamCtx, cancel := context.WithCancel(context.Background())

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := m.database.Collection(sessionsCollection).Watch(streamCtx, mongo.Pipeline{}, opts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("session stream: %w", err)
	}

	sub := &mongoSubscription{
		stream: stream,
		ctx:    streamCtx,
		cancel: cancel,
		events: make(chan SessionEvent),
		done:   make(chan struct{}),
	}
	sub.wg.Add(1)
	go sub.readLoop()
	return sub, nil
}

type mongoSubscription struct {
	stream    *mongo.ChangeStream
	ctx       context.Context
	cancel    context.CancelFunc
	events    chan SessionEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func (s *mongoSubscription) Events() <-chan SessionEvent {
	return s.events
}

func (s *mongoSubscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		s.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.stream.Close(ctx); err != nil {
			logrus.WithError(err).Warn("closing session change stream")
		}
		close(s.events)
	})
	return nil
}

func (s *mongoSubscription) readLoop() {
	defer s.wg.Done()

	for s.stream.Next(s.ctx) {
		var change struct {
			OperationType string          `bson:"operationType"`
			FullDocument  sessionDocument `bson:"fullDocument"`
		}
		if err := s.stream.Decode(&change); err != nil {
			logrus.WithError(err).Warn("decoding session change event")
			continue
		}

		event := SessionEvent{}
		if change.OperationType != "delete" && change.FullDocument.Session.User != nil {
			session := change.FullDocument.Session
			event.Session = &session
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}

// EnsureIndexes creates the indexes the portal queries rely on.
// bson.D is used instead of maps to preserve key order in compound indexes.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionCategories: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		CollectionPanchayaths: {
			{Keys: bson.D{{Key: "malayalam_name", Value: 1}}},
			{Keys: bson.D{{Key: "district", Value: 1}}},
		},
		CollectionAnnouncements: {
			{
				Keys: bson.D{
					{Key: "is_active", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
		},
		CollectionGallery: {
			{Keys: bson.D{{Key: "uploaded_at", Value: -1}}},
		},
		CollectionRegistrations: {
			{Keys: bson.D{{Key: "submitted_at", Value: -1}}},
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "panchayath_id", Value: 1},
				},
			},
			{
				Keys:    bson.D{{Key: "unique_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		CollectionNotifications: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "target_audience", Value: 1}}},
		},
	}

	for collection, collectionIndexes := range indexes {
		if _, err := m.database.Collection(collection).Indexes().CreateMany(ctx, collectionIndexes); err != nil {
			return fmt.Errorf("creating indexes for %s: %w", collection, err)
		}
	}

	logrus.Info("indexes created for all collections")
	return nil
}
