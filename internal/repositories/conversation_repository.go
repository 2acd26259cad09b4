package repositories

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/padosi-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository defines the interface for conversation operations.
// Documents are keyed by the id derived from the request id, which is what
// keeps the collection at one conversation per request.
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.Conversation, error)
	GetByParticipant(ctx context.Context, userID uint) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, id string, msg models.Message, recipientID uint) error
	MarkRead(ctx context.Context, id string, viewerID uint) error
}

// MongoConversationRepository implements ConversationRepository for MongoDB
type MongoConversationRepository struct {
	collection *mongo.Collection
}

// NewMongoConversationRepository creates a new MongoConversationRepository
func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{collection: db.Collection("conversations")}
}

// Create inserts a new conversation document. The deterministic _id makes a
// duplicate insert for the same request fail rather than fork the thread.
func (r *MongoConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	conv.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, conv)
	return err
}

// GetByID retrieves a conversation by its id
func (r *MongoConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// GetByRequestID retrieves the conversation bound to a request, if any
func (r *MongoConversationRepository) GetByRequestID(ctx context.Context, requestID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// GetByParticipant retrieves a user's threads, most recently active first
func (r *MongoConversationRepository) GetByParticipant(ctx context.Context, userID uint) ([]models.Conversation, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"requester_id": userID},
		bson.M{"helper_id": userID},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// AppendMessage appends to the message list, bumps last_message_at, and
// increments the recipient's unread counter in the same update.
func (r *MongoConversationRepository) AppendMessage(ctx context.Context, id string, msg models.Message, recipientID uint) error {
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"last_message_at": msg.Timestamp},
		"$inc":  bson.M{"unread." + strconv.FormatUint(uint64(recipientID), 10): 1},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRead zeroes the viewer's unread counter for a thread.
func (r *MongoConversationRepository) MarkRead(ctx context.Context, id string, viewerID uint) error {
	update := bson.M{
		"$set": bson.M{"unread." + strconv.FormatUint(uint64(viewerID), 10): 0},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
