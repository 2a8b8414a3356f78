package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/clinic-portal/internal/core/ports"
)

func TestStorage_KeyFormat(t *testing.T) {
	s := NewStorage(nil, "3f1c")

	assert.Equal(t, "clinic:storage:3f1c:auth_token", s.key(ports.StorageKeyToken))
	assert.Equal(t, []string{"clinic:storage:3f1c:auth_token", "clinic:storage:3f1c:user"},
		s.keys([]string{ports.StorageKeyToken, ports.StorageKeyUser}))
}

func TestStorage_EmptyArgumentsSkipRedis(t *testing.T) {
	s := NewStorage(nil, "v")
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, s.Save(ctx, nil, time.Minute))
	assert.NoError(t, s.Remove(ctx))
}

// TestStorage_RoundTrip needs a live server: REDIS_TEST_ADDR=localhost:6379.
func TestStorage_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, Config{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	s := NewStorageFactory(client)(uuid.NewString())
	require.NoError(t, s.Save(ctx, map[string]string{
		ports.StorageKeyToken: "tok-1",
		ports.StorageKeyUser:  `{"id":1}`,
	}, time.Minute))

	got, err := s.Load(ctx, ports.StorageKeyToken, ports.StorageKeyUser, "missing")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{ports.StorageKeyToken: "tok-1", ports.StorageKeyUser: `{"id":1}`}, got)

	require.NoError(t, s.Remove(ctx, ports.StorageKeyToken, ports.StorageKeyUser))
	got, err = s.Load(ctx, ports.StorageKeyToken)
	require.NoError(t, err)
	assert.Empty(t, got)
}
