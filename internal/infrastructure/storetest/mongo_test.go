package storetest_test

import (
	"context"
	"os"
	"testing"
	"time"

	bookRepo "library-backend/internal/domains/book/repository"
	lendingRepo "library-backend/internal/domains/lending/repository"
	memberRepo "library-backend/internal/domains/member/repository"
	"library-backend/internal/infrastructure/mongodb"
	"library-backend/internal/infrastructure/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Set TEST_MONGO_URI to a replica set (transactions need one) to run the
// contracts against MongoDB. Every run uses and then drops its own database.
func TestContract_MongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	storetest.RunAll(t, func(t *testing.T) (storetest.Repos, storetest.CleanupFunc) {
		t.Helper()
		ctx := context.Background()

		m := mongodb.NewMongoDB(uri, "library_test_"+uuid.NewString()[:8], 10*time.Second)
		require.NoError(t, m.Connect(ctx))
		require.NoError(t, m.EnsureIndexes(ctx))

		return storetest.Repos{
				Books:   bookRepo.NewMongoRepository(m.Database),
				Members: memberRepo.NewMongoRepository(m.Database),
				Lending: lendingRepo.NewMongoRepository(m.Database),
			}, func() {
				_ = m.Database.Drop(ctx)
				_ = m.Close(ctx)
			}
	})
}
