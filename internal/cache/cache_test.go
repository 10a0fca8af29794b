package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"valid", Config{URL: "redis://localhost:6379/0", TTL: 30 * time.Second}, false},
		{"bad scheme", Config{URL: "http://localhost"}, true},
		{"negative ttl", Config{URL: "redis://localhost:6379", TTL: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRedis(t *testing.T) {
	_, err := NewRedis(Config{})
	assert.Error(t, err)

	r, err := NewRedis(Config{URL: "redis://localhost:6379/0"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, r.ttl)
	assert.NoError(t, r.Close())
}

func TestKey(t *testing.T) {
	a := Key("from Product\nselect Name")
	assert.Equal(t, a, Key("from Product\nselect Name"))
	assert.NotEqual(t, a, Key("from Product\nselect Price"))
	assert.Len(t, a, len("products:")+64)
}

// TestRedis_RoundTrip needs a server; set DYNFILTER_TEST_REDIS_URL to run it.
func TestRedis_RoundTrip(t *testing.T) {
	url := os.Getenv("DYNFILTER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DYNFILTER_TEST_REDIS_URL not set")
	}

	r, err := NewRedis(Config{URL: url, TTL: 5 * time.Second, Prefix: "dynfilter-test:"})
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.Ping(ctx))

	key := Key(t.Name() + time.Now().String())
	_, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, key, []byte(`{"count":1}`)))
	value, ok, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"count":1}`, string(value))
}
