package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_CopiesSeed(t *testing.T) {
	seed := map[string]any{"search.concurrency": 3}
	store := NewConfigStore(seed)
	require.NotNil(t, store)

	seed["search.concurrency"] = 9
	assert.Equal(t, 3, store.GetInt("search.concurrency"))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore(nil)

	require.NoError(t, store.Set("server.addr", ":8080"))

	val, ok := store.Get("server.addr")
	assert.True(t, ok)
	assert.Equal(t, ":8080", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"str":    "value",
		"int":    42,
		"int64":  int64(7),
		"float":  float64(2),
		"bool":   true,
		"slice":  []string{"a", "b"},
		"mixed":  []any{"a", 1, "b"},
		"wrong":  struct{}{},
		"strint": "12",
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("str"), "value"},
		{"string wrong type", store.GetString("int"), ""},
		{"int", store.GetInt("int"), 42},
		{"int64", store.GetInt("int64"), 7},
		{"float", store.GetInt("float"), 2},
		{"int from string", store.GetInt("strint"), 0},
		{"bool", store.GetBool("bool"), true},
		{"bool missing", store.GetBool("missing"), false},
		{"slice", store.GetStringSlice("slice"), []string{"a", "b"}},
		{"mixed slice", store.GetStringSlice("mixed"), []string{"a", "b"}},
		{"slice wrong type", store.GetStringSlice("wrong"), []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_GetDuration(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"str":       "90s",
		"bad":       "soon",
		"seconds":   30,
		"seconds64": int64(5),
		"duration":  2 * time.Minute,
	})

	assert.Equal(t, 90*time.Second, store.GetDuration("str"))
	assert.Zero(t, store.GetDuration("bad"))
	assert.Equal(t, 30*time.Second, store.GetDuration("seconds"))
	assert.Equal(t, 5*time.Second, store.GetDuration("seconds64"))
	assert.Equal(t, 2*time.Minute, store.GetDuration("duration"))
	assert.Zero(t, store.GetDuration("missing"))
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore(nil)
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("search.concurrency", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("search.concurrency")
		}()
	}
	wg.Wait()

	_, ok := store.Get("search.concurrency")
	assert.True(t, ok)
}

func TestConfigStore_KeysAndUnset(t *testing.T) {
	store := NewConfigStore(map[string]any{"storage.driver": "memory", "search.concurrency": 2})

	assert.Equal(t, []string{"search.concurrency", "storage.driver"}, store.Keys())

	require.NoError(t, store.Unset("storage.driver"))
	require.NoError(t, store.Unset("never.set"))
	assert.Equal(t, []string{"search.concurrency"}, store.Keys())
	_, ok := store.Get("storage.driver")
	assert.False(t, ok)
}
