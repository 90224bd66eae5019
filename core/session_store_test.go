package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, []byte("test-session-key")), mr
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, mr := newTestRedisStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := store.Get(req, sessionName)
	require.NoError(t, err)
	assert.True(t, sess.IsNew)

	storePrincipal(sess, Principal{Username: "alice", Role: "faculty", AuthenticatedAt: time.Unix(1700000000, 0)})
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(req, rec, sess))

	require.NotEmpty(t, sess.ID)
	key := redisSessionPrefix + sess.ID
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Duration(sessionMaxAge)*time.Second, mr.TTL(key))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotContains(t, cookies[0].Value, "alice", "cookie carries only the signed id")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := store.Get(next, sessionName)
	require.NoError(t, err)
	assert.False(t, loaded.IsNew)
	assert.Equal(t, sess.ID, loaded.ID)

	p, ok := principalFromSession(loaded)
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "faculty", p.Role)
	assert.Equal(t, int64(1700000000), p.AuthenticatedAt.Unix())
}

func TestRedisStore_DeleteOnNegativeMaxAge(t *testing.T) {
	store, mr := newTestRedisStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := store.New(req, sessionName)
	require.NoError(t, err)
	sess.Values["username"] = "alice"
	require.NoError(t, store.Save(req, httptest.NewRecorder(), sess))
	key := redisSessionPrefix + sess.ID
	require.True(t, mr.Exists(key))

	sess.Options.MaxAge = -1
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(req, rec, sess))

	assert.False(t, mr.Exists(key))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestRedisStore_ExpiredSessionStartsFresh(t *testing.T) {
	store, mr := newTestRedisStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := store.New(req, sessionName)
	require.NoError(t, err)
	sess.Values["username"] = "alice"
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(req, rec, sess))

	mr.FastForward(time.Duration(sessionMaxAge+1) * time.Second)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(rec.Result().Cookies()[0])
	loaded, err := store.Get(next, sessionName)
	require.NoError(t, err)
	assert.True(t, loaded.IsNew)
	_, ok := principalFromSession(loaded)
	assert.False(t, ok)
}

func TestRedisStore_TamperedCookie(t *testing.T) {
	store, _ := newTestRedisStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionName, Value: "not-a-signed-value"})
	sess, err := store.Get(req, sessionName)
	require.Error(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.IsNew)
}
