package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "faculty_session:"

// RedisStore is a sessions.Store that keeps session values in Redis and only a
// signed session ID in the cookie, so logout revokes the session server-side.
type RedisStore struct {
	client  *redis.Client
	codecs  []securecookie.Codec
	encoder securecookie.GobEncoder
	Options *sessions.Options
}

var _ sessions.Store = (*RedisStore)(nil)

// NewRedisStore signs cookies with keyPairs as sessions.NewCookieStore does.
func NewRedisStore(client *redis.Client, keyPairs ...[]byte) *RedisStore {
	return &RedisStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:   "/",
			MaxAge: sessionMaxAge,
		},
	}
}

// Get returns the session cached for this request or loads it.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing or expired session
// yields a fresh one with IsNew set.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return session, err
	}
	found, err := s.load(r.Context(), id, session)
	if err != nil {
		return session, err
	}
	if found {
		session.ID = id
		session.IsNew = false
	}
	return session, nil
}

// Save writes the session values to Redis and the signed ID to the cookie.
// A negative MaxAge deletes both.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()
	if session.Options != nil && session.Options.MaxAge < 0 {
		if err := s.Revoke(ctx, session.ID); err != nil {
			return err
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		id, err := newSessionID()
		if err != nil {
			return fmt.Errorf("generate session id: %w", err)
		}
		session.ID = id
	}

	b, err := s.encoder.Serialize(session.Values)
	if err != nil {
		return fmt.Errorf("serialize session: %w", err)
	}
	if err := s.client.Set(ctx, redisSessionPrefix+session.ID, b, s.ttl(session)).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Revoke deletes the server-side values of session id. Cookies still naming it
// load as a new, empty session.
func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, redisSessionPrefix+id).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, id string, session *sessions.Session) (bool, error) {
	b, err := s.client.Get(ctx, redisSessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if err := s.encoder.Deserialize(b, &session.Values); err != nil {
		return false, fmt.Errorf("deserialize session: %w", err)
	}
	return true, nil
}

// ttl follows the cookie lifetime; browser-session cookies fall back to sessionMaxAge.
func (s *RedisStore) ttl(session *sessions.Session) time.Duration {
	maxAge := sessionMaxAge
	if session.Options != nil && session.Options.MaxAge > 0 {
		maxAge = session.Options.MaxAge
	}
	return time.Duration(maxAge) * time.Second
}
