package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End-to-end walk through a small todo application's store usage:
// schema registration, validated writes, change subscription, backup
// and restore.
func TestTodoScenario(t *testing.T) {
	s, clock := newTestStore(t)

	validate, err := CompileCUEValidator(`[...{title: string, done: bool}]`)
	require.NoError(t, err)
	require.NoError(t, s.RegisterSchema("todos", Schema{
		Version:  1,
		Validate: validate,
		Default:  []any{},
	}))

	// Empty store reads the schema default.
	assert.Equal(t, []any{}, s.Get("todos"))

	var notifications int
	var lastSeen any
	unsubscribe := s.Subscribe("todos", func(value any, key string) {
		notifications++
		lastSeen = value
	})

	// A malformed item never reaches storage or subscribers.
	err = s.Set("todos", []any{map[string]any{"title": 42}})
	assert.True(t, IsValidationError(err))
	assert.Equal(t, 0, notifications)

	first := []any{map[string]any{"title": "buy milk", "done": false}}
	require.NoError(t, s.Set("todos", first))
	assert.Equal(t, 1, notifications)
	assert.Equal(t, first, lastSeen)

	backupID, err := s.Backup()
	require.NoError(t, err)

	second := []any{
		map[string]any{"title": "buy milk", "done": true},
		map[string]any{"title": "water plants", "done": false},
	}
	require.NoError(t, s.Set("todos", second))
	assert.Equal(t, 2, notifications)

	// A session key with a TTL expires independently of the todos.
	require.NoError(t, s.Set("session", "tok", WithTTL(30*time.Minute)))
	clock.Advance(time.Hour)
	assert.False(t, s.Has("session"))
	assert.Equal(t, second, s.Get("todos"))

	// Restore rolls the list back; reads reflect it, but restore is a
	// bulk operation and does not notify.
	require.NoError(t, s.RestoreFromBackup(backupID))
	assert.Equal(t, first, s.Get("todos"))
	assert.Equal(t, 2, notifications)

	unsubscribe()
	require.NoError(t, s.Set("todos", second))
	assert.Equal(t, 2, notifications)
}
