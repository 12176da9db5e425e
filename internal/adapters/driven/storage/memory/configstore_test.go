package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_GetSet(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("missing")
	assert.False(t, ok)

	require.NoError(t, store.Set("server.addr", "127.0.0.1:9090"))
	val, ok := store.Get("server.addr")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:9090", val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStoreWith(map[string]any{
		"data.dir":      "/tmp/quire",
		"import.max_mb": 50,
		"float_mb":      int64(25),
		"json_mb":       30.0,
		"verbose":       true,
	})

	assert.Equal(t, "/tmp/quire", store.GetString("data.dir"))
	assert.Equal(t, "", store.GetString("import.max_mb"), "wrong type yields zero value")

	assert.Equal(t, 50, store.GetInt("import.max_mb"))
	assert.Equal(t, 25, store.GetInt("float_mb"))
	assert.Equal(t, 30, store.GetInt("json_mb"))
	assert.Equal(t, 0, store.GetInt("data.dir"))

	assert.True(t, store.GetBool("verbose"))
	assert.False(t, store.GetBool("data.dir"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}
