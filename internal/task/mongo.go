package task

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

type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository binds the collection and ensures its indexes.
func NewMongoRepository(ctx context.Context, db *mongo.Database, collection string) (*MongoRepository, error) {
	r := &MongoRepository{coll: db.Collection(collection)}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "assigned_to_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create task indexes: %w", err)
	}
	return r, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, apperr.ErrStorage, err)
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var t model.Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
		}
		return nil, storageErr("find task", err)
	}
	return &t, nil
}

func (r *MongoRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storageErr("find tasks", err)
	}
	defer cur.Close(ctx)

	out := []*model.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, storageErr("decode tasks", err)
	}
	return out, nil
}

func (r *MongoRepository) Create(ctx context.Context, t *model.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return storageErr("insert task", err)
	}
	return nil
}

func (r *MongoRepository) Update(ctx context.Context, t *model.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return storageErr("replace task", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", t.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var t model.Task
	if err := res.Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
		}
		return nil, storageErr("update task status", err)
	}
	return &t, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storageErr("delete task", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoRepository) List(ctx context.Context, f ListFilter) ([]*model.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	switch {
	case f.Created && !f.Assigned:
		filter["creator_id"] = f.UserID
	case f.Assigned && !f.Created:
		filter["assigned_to_id"] = f.UserID
	default:
		filter["$or"] = []bson.M{{"creator_id": f.UserID}, {"assigned_to_id": f.UserID}}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	defer cur.Close(ctx)

	out := []*model.Task{}
	for cur.Next(ctx) {
		var t model.Task
		if err := cur.Decode(&t); err != nil {
			return nil, storageErr("decode task", err)
		}
		out = append(out, &t)
	}
	if err := cur.Err(); err != nil {
		return nil, storageErr("list tasks", err)
	}
	return out, nil
}
