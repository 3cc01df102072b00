package user

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

// MongoDirectory reads the users collection written by the auth service.
// Account ids there are ObjectIDs; ids that do not parse as one are matched
// as plain strings.
type MongoDirectory struct {
	col *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database, collection string) *MongoDirectory {
	return &MongoDirectory{col: db.Collection(collection)}
}

type userDoc struct {
	ID    any    `bson:"_id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

func (d userDoc) summary() model.UserSummary {
	id := fmt.Sprint(d.ID)
	if oid, ok := d.ID.(primitive.ObjectID); ok {
		id = oid.Hex()
	}
	return model.UserSummary{ID: id, Name: d.Name, Email: d.Email}
}

func docID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

var projection = bson.M{"name": 1, "email": 1}

func (m *MongoDirectory) FindByID(ctx context.Context, id string) (*model.UserSummary, error) {
	var doc userDoc
	err := m.col.FindOne(ctx, bson.M{"_id": docID(id)}, options.FindOne().SetProjection(projection)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w: %v", apperr.ErrStorage, err)
	}
	u := doc.summary()
	u.ID = id
	return &u, nil
}

func (m *MongoDirectory) FindByIDs(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	out := make(map[string]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]any, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, docID(id))
	}

	cur, err := m.col.Find(ctx, bson.M{"_id": bson.M{"$in": keys}}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("find users: %w: %v", apperr.ErrStorage, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w: %v", apperr.ErrStorage, err)
		}
		u := doc.summary()
		out[u.ID] = u
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("find users: %w: %v", apperr.ErrStorage, err)
	}
	return out, nil
}

func (m *MongoDirectory) Count(ctx context.Context) (int64, error) {
	n, err := m.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w: %v", apperr.ErrStorage, err)
	}
	return n, nil
}
