package core

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestNewRedisClient_Failures(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	tests := []struct {
		name     string
		url      string
		wantCode string
	}{
		{name: "empty url", url: "", wantCode: "SESSION_REDIS_CONFIG"},
		{name: "bad scheme", url: "http://" + addr, wantCode: "SESSION_REDIS_CONFIG"},
		{name: "server down", url: "redis://" + addr + "/0", wantCode: "SESSION_REDIS_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRedisClient(context.Background(), tt.url)
			require.Error(t, err)
			assert.Nil(t, client)

			oe, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, oe.Code())
			if tt.wantCode == "SESSION_REDIS_UNAVAILABLE" {
				assert.True(t, errors.Is(err, ErrStoreUnavailable))
			}
		})
	}
}
