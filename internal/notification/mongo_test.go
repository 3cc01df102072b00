package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
	"github.com/Neeraj110/task-manager-app/internal/model"
)

// unreachable returns a database handle whose server never answers.
func unreachable(t *testing.T) *mongo.Database {
	t.Helper()
	opts := options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200 * time.Millisecond)
	mc, err := mongo.Connect(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mc.Disconnect(context.Background()) })
	return mc.Database("taskflow_test")
}

func TestMongoStoreUnreachable(t *testing.T) {
	db := unreachable(t)

	t.Run("index failure is reported", func(t *testing.T) {
		s, err := NewMongoStore(context.Background(), db, "notifications")
		assert.Error(t, err)
		assert.Nil(t, s)
	})

	t.Run("calls surface storage errors", func(t *testing.T) {
		s := &MongoStore{col: db.Collection("notifications")}
		err := s.Insert(context.Background(), &model.Notification{ID: "n1", UserID: "u1"})
		assert.ErrorIs(t, err, apperr.ErrStorage)

		_, err = s.CountUnread(context.Background(), "u1")
		assert.ErrorIs(t, err, apperr.ErrStorage)
	})
}
