package state

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseManager(t *testing.T, m StateManager) {
	t.Helper()
	const user = int64(4242)

	assert.Equal(t, None, m.GetUserState(user))
	m.SetUserState(user, WaitingForWeight)
	assert.Equal(t, WaitingForWeight, m.GetUserState(user))
	m.ClearUserState(user)
	assert.Equal(t, None, m.GetUserState(user))

	_, ok := m.GetTempData(user, KeyMealType)
	assert.False(t, ok)
	m.SetTempData(user, KeyMealType, "dinner")
	value, ok := m.GetTempData(user, KeyMealType)
	require.True(t, ok)
	assert.Equal(t, "dinner", value)
	m.ClearTempData(user)
	_, ok = m.GetTempData(user, KeyMealType)
	assert.False(t, ok)
}

func TestManager(t *testing.T) {
	exerciseManager(t, NewManager())
}

func TestManagerIsolatesUsers(t *testing.T) {
	m := NewManager()
	m.SetUserState(1, WaitingForFoodDescription)
	m.SetTempData(1, KeyMealType, "lunch")

	assert.Equal(t, None, m.GetUserState(2))
	_, ok := m.GetTempData(2, KeyMealType)
	assert.False(t, ok)
}

// TestRedisManager runs against a real server when TEST_REDIS_ADDR is set.
func TestRedisManager(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	m := NewRedisManager(client)
	exerciseManager(t, m)

	m.SetUserState(7, WaitingForWeight)
	ttl, err := client.TTL(context.Background(), fmt.Sprintf("user:%d:state", 7)).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
	m.ClearUserState(7)
}
