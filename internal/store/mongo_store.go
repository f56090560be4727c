package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/wellness-api/internal/models"
)

const (
	usersCollection         = "users"
	subscriptionsCollection = "subscriptions"
	consultationsCollection = "consultations"
	chatMessagesCollection  = "chat_messages"
)

// MongoStore implements Store on a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects, pings and makes sure the indexes exist.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		subscriptionsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		consultationsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		chatMessagesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.findOne(ctx, usersCollection, bson.M{"_id": id}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.findOne(ctx, usersCollection, bson.M{"email": email}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	prepare(&user.ID, &user.CreatedAt)
	_, err := s.db.Collection(usersCollection).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) UpdateUserSubscription(ctx context.Context, userID string, isSubscribed bool) error {
	return s.updateByID(ctx, usersCollection, userID, bson.M{"isSubscribed": isSubscribed})
}

func (s *MongoStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	prepare(&sub.ID, &sub.CreatedAt)
	_, err := s.db.Collection(subscriptionsCollection).InsertOne(ctx, sub)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateReference
	}
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *MongoStore) GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var sub models.Subscription
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := s.findOne(ctx, subscriptionsCollection, bson.M{"userId": userID}, &sub, opts); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *MongoStore) UpdateSubscriptionStatus(ctx context.Context, id, status string) error {
	return s.updateByID(ctx, subscriptionsCollection, id, bson.M{"status": status})
}

func (s *MongoStore) CreateConsultation(ctx context.Context, c *models.Consultation) error {
	prepare(&c.ID, &c.CreatedAt)
	if _, err := s.db.Collection(consultationsCollection).InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}
	return nil
}

func (s *MongoStore) ListConsultations(ctx context.Context, userID string) ([]models.Consultation, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}) // newest first
	cursor, err := s.db.Collection(consultationsCollection).Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find consultations: %w", err)
	}
	defer cursor.Close(ctx)

	consultations := make([]models.Consultation, 0)
	if err := cursor.All(ctx, &consultations); err != nil {
		return nil, fmt.Errorf("decode consultations: %w", err)
	}
	return consultations, nil
}

func (s *MongoStore) UpdateConsultationStatus(ctx context.Context, id, status string, scheduledAt *time.Time) error {
	fields := bson.M{"status": status}
	if scheduledAt != nil {
		fields["scheduledAt"] = *scheduledAt
	}
	return s.updateByID(ctx, consultationsCollection, id, fields)
}

func (s *MongoStore) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	prepare(&msg.ID, &msg.CreatedAt)
	if _, err := s.db.Collection(chatMessagesCollection).InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *MongoStore) ListChatMessages(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	cursor, err := s.db.Collection(chatMessagesCollection).Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find chat messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]models.ChatMessage, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode chat messages: %w", err)
	}
	return messages, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findOne(ctx context.Context, collection string, filter bson.M, out any, opts ...*options.FindOneOptions) error {
	err := s.db.Collection(collection).FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) updateByID(ctx context.Context, collection, id string, fields bson.M) error {
	result, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
