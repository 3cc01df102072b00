package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

// MongoStore persists notifications. Calls carry the caller's context as is;
// no per-call deadline is added.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(ctx context.Context, db *mongo.Database, collection string) (*MongoStore, error) {
	s := &MongoStore{col: db.Collection(collection)}
	ictx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.col.Indexes().CreateMany(ictx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create notification indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Insert(ctx context.Context, n *model.Notification) error {
	if _, err := s.col.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w: %v", apperr.ErrStorage, err)
	}
	return nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w: %v", apperr.ErrStorage, err)
	}
	defer cur.Close(ctx)

	out := []*model.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notifications: %w: %v", apperr.ErrStorage, err)
	}
	return out, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	res := s.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var n model.Notification
	if err := res.Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("mark notification read: %w: %v", apperr.ErrStorage, err)
	}
	return &n, nil
}

func (s *MongoStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w: %v", apperr.ErrStorage, err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("count unread: %w: %v", apperr.ErrStorage, err)
	}
	return n, nil
}
