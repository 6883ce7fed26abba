package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/startupjobs/jobboard-service/internal/config"
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/models"
)

// mongoJob is the document shape of a posting in the jobs collection
type mongoJob struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Company   string             `bson:"company"`
	Category  string             `bson:"category"`
	Location  string             `bson:"location"`
	URL       string             `bson:"url"`
	Email     string             `bson:"email"`
	Status    string             `bson:"status"`
	Timestamp time.Time          `bson:"timestamp"`
}

func (d mongoJob) toModel() models.JobPosting {
	return models.JobPosting{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Company:      d.Company,
		Category:     d.Category,
		Location:     d.Location,
		Link:         d.URL,
		ContactEmail: d.Email,
		Status:       models.Status(d.Status),
		CreatedAt:    d.Timestamp.UTC(),
	}
}

// MongoDBStorage implements Storage interface using MongoDB
type MongoDBStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoDBStorage creates a new MongoDB storage instance
func NewMongoDBStorage(cfg config.StorageConfig) (*MongoDBStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	storage := &MongoDBStorage{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.TableName),
	}

	if err := storage.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ensure indexes exist: %w", err)
	}

	return storage, nil
}

// newMongoDBStorageFromCollection wraps an existing collection
func newMongoDBStorageFromCollection(coll *mongo.Collection) *MongoDBStorage {
	return &MongoDBStorage{client: coll.Database().Client(), collection: coll}
}

// ensureIndexes creates the equality indexes used by the listing views
func (s *MongoDBStorage) ensureIndexes(ctx context.Context) error {
	keys := []string{"status", "category", "company", "location", "timestamp"}
	indexes := make([]mongo.IndexModel, 0, len(keys))
	for _, key := range keys {
		indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}})
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Insert stores a new pending posting
func (s *MongoDBStorage) Insert(ctx context.Context, posting models.JobPosting) (string, error) {
	posting = prepareInsert(posting)
	doc := mongoJob{
		ID:        primitive.NewObjectID(),
		Title:     posting.Title,
		Company:   posting.Company,
		Category:  posting.Category,
		Location:  posting.Location,
		URL:       posting.Link,
		Email:     posting.ContactEmail,
		Status:    string(posting.Status),
		Timestamp: posting.CreatedAt,
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return "", apperrors.Storage("failed to insert posting", err)
	}
	return doc.ID.Hex(), nil
}

// Get retrieves a posting by id
func (s *MongoDBStorage) Get(ctx context.Context, id string) (*models.JobPosting, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound(id)
	}

	var doc mongoJob
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("failed to get posting %s", id), err)
	}

	posting := doc.toModel()
	return &posting, nil
}

// GetByStatus retrieves postings with the given status in insertion order
func (s *MongoDBStorage) GetByStatus(ctx context.Context, status models.Status) ([]models.JobPosting, error) {
	return s.Find(ctx, models.Filter{Status: status})
}

// GetAll retrieves every posting in insertion order
func (s *MongoDBStorage) GetAll(ctx context.Context) ([]models.JobPosting, error) {
	return s.Find(ctx, models.Filter{})
}

// Find retrieves postings matching filter
func (s *MongoDBStorage) Find(ctx context.Context, filter models.Filter) ([]models.JobPosting, error) {
	query := bson.D{}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: string(filter.Status)})
	}
	if filter.Category != "" {
		query = append(query, bson.E{Key: "category", Value: filter.Category})
	}
	if filter.Company != "" {
		query = append(query, bson.E{Key: "company", Value: filter.Company})
	}
	if filter.Location != "" {
		query = append(query, bson.E{Key: "location", Value: filter.Location})
	}

	// ObjectIDs are generated in insertion order
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if filter.Newest {
		opts.SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, apperrors.Storage("failed to query postings", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoJob
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.Storage("failed to decode postings", err)
	}

	postings := make([]models.JobPosting, 0, len(docs))
	for _, doc := range docs {
		postings = append(postings, doc.toModel())
	}
	return postings, nil
}

// UpdateStatus sets the status unconditionally
func (s *MongoDBStorage) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	if err := checkStatus(status); err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound(id)
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return apperrors.Storage(fmt.Sprintf("failed to update posting %s", id), err)
	}
	if result.MatchedCount == 0 {
		return notFound(id)
	}
	return nil
}

// TransitionStatus sets the status only if it is currently from
func (s *MongoDBStorage) TransitionStatus(ctx context.Context, id string, from, to models.Status) error {
	if err := checkStatus(to); err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound(id)
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to)}},
	)
	if err != nil {
		return apperrors.Storage(fmt.Sprintf("failed to transition posting %s", id), err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return transitionMismatch(id, from, current.Status)
}

// Ping checks connectivity to the MongoDB deployment
func (s *MongoDBStorage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return apperrors.Storage("failed to ping MongoDB", err)
	}
	return nil
}

// Close disconnects the MongoDB client
func (s *MongoDBStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
