package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoStore_RoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set; skipping Mongo integration test")
	}
	ctx := context.Background()
	env := fmt.Sprintf("test_env_%d", time.Now().UTC().UnixNano())

	s, err := New(ctx, uri, "prommonitor_test", env)
	require.NoError(t, err)
	defer func() {
		_ = s.coll.Drop(ctx)
		_ = s.Close(ctx)
	}()

	require.NoError(t, s.UpsertLastSeen(ctx, "b", 100))
	require.NoError(t, s.UpsertLastSeen(ctx, "a", 50))
	require.NoError(t, s.UpsertAlertState(ctx, "b", true))
	require.NoError(t, s.UpsertLastSeen(ctx, "b", 150))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ClusterName)
	assert.False(t, all[0].AlertActive)
	assert.Equal(t, int64(150), all[1].LastSeen)
	assert.True(t, all[1].AlertActive)

	require.NoError(t, s.Delete(ctx, "a"))
	all, err = s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
