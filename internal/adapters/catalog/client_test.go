package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bruizy/lego-flip-tracker/internal/adapters/catalog"
	redis_a "github.com/Bruizy/lego-flip-tracker/internal/adapters/redis_adapter"
	"github.com/Bruizy/lego-flip-tracker/internal/core/ports"
	"github.com/Bruizy/lego-flip-tracker/test/helpers"
)

const setResponse = `{
	"set_num": "10305-1",
	"name": "Lion Knights' Castle",
	"year": 2022,
	"num_parts": 4514,
	"set_img_url": "https://cdn.rebrickable.com/media/sets/10305-1.jpg",
	"theme_id": 186
}`

func newCatalogServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}

		switch r.URL.Path {
		case "/lego/sets/10305-1/":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(setResponse))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestCache(t *testing.T) ports.CacheRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())
}

func TestClient_LookupSet(t *testing.T) {
	server := newCatalogServer(t, nil)
	client := catalog.NewClient(&catalog.Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, nil, helpers.TestLogger())

	t.Run("returns_set_metadata", func(t *testing.T) {
		info, err := client.LookupSet(context.Background(), "10305")
		require.NoError(t, err)
		assert.Equal(t, "10305-1", info.SetNumber)
		assert.Equal(t, "Lion Knights' Castle", info.Name)
		assert.Equal(t, 2022, info.Year)
		assert.Equal(t, "https://cdn.rebrickable.com/media/sets/10305-1.jpg", info.ImageURL)
	})

	t.Run("variant_suffix_is_kept", func(t *testing.T) {
		info, err := client.LookupSet(context.Background(), "10305-1")
		require.NoError(t, err)
		assert.Equal(t, "Lion Knights' Castle", info.Name)
	})

	t.Run("unknown_set_returns_not_found", func(t *testing.T) {
		_, err := client.LookupSet(context.Background(), "99999")
		assert.ErrorIs(t, err, catalog.ErrSetNotFound)
	})

	t.Run("empty_set_number_is_rejected", func(t *testing.T) {
		_, err := client.LookupSet(context.Background(), "")
		assert.Error(t, err)
	})
}

func TestClient_LookupSet_CachesResults(t *testing.T) {
	var hits atomic.Int64
	server := newCatalogServer(t, &hits)
	cache := newTestCache(t)
	client := catalog.NewClient(&catalog.Config{
		BaseURL: server.URL,
	}, cache, helpers.TestLogger())

	info, err := client.LookupSet(context.Background(), "10305")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())

	again, err := client.LookupSet(context.Background(), "10305")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load(), "second lookup should come from cache")
	assert.Equal(t, info, again)
}

func TestClient_LookupSet_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := catalog.NewClient(&catalog.Config{BaseURL: server.URL}, nil, helpers.TestLogger())

	_, err := client.LookupSet(context.Background(), "10305")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
