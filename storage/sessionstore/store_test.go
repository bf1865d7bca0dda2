package sessionstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest/academy/core"
)

const cookieName = "eduquest_session"

func newConf(store string, t *testing.T) *core.Config {
	return &core.Config{
		SecretKey: "secret",
		Session: core.SessionConfig{
			Name:   cookieName,
			Store:  store,
			Path:   t.TempDir(),
			MaxAge: 3600,
		},
	}
}

// roundTrip saves a value through one request and reads it back through another carrying the cookie.
func roundTrip(t *testing.T, store sessions.Store) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	sess, err := store.Get(req, cookieName)
	require.NoError(t, err)
	assert.True(t, sess.IsNew)
	sess.Values["username"] = "Bob"
	sess.Values["authenticated"] = true
	require.NoError(t, sess.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	sess, err = store.Get(req, cookieName)
	require.NoError(t, err)
	assert.False(t, sess.IsNew)
	assert.Equal(t, "Bob", sess.Values["username"])
	assert.Equal(t, true, sess.Values["authenticated"])

	// expiring the session clears the cookie
	rec = httptest.NewRecorder()
	sess.Options.MaxAge = -1
	require.NoError(t, sess.Save(req, rec))
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestNew(t *testing.T) {
	for _, name := range []string{StoreCookie, StoreFilesystem} {
		t.Run(name, func(t *testing.T) {
			store, err := New(newConf(name, t), nil)
			require.NoError(t, err)
			roundTrip(t, store)
		})
	}
}

func TestNew_errors(t *testing.T) {
	_, err := New(newConf(StoreRedis, t), nil)
	assert.ErrorIs(t, err, errNoRedis)

	_, err = New(newConf("memcached", t), nil)
	assert.Error(t, err)
}

func TestNew_tamperedCookie(t *testing.T) {
	store, err := New(newConf(StoreCookie, t), nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "forged"})
	sess, err := store.Get(req, cookieName)
	assert.Error(t, err)
	assert.True(t, sess.IsNew)
	assert.Empty(t, sess.Values)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	store, err := New(newConf(StoreRedis, t), client)
	require.NoError(t, err)
	roundTrip(t, store)
}

func TestNew_filesystemWithoutMaxAge(t *testing.T) {
	conf := newConf(StoreFilesystem, t)
	conf.Session.MaxAge = 0

	assert.Equal(t, defaultMaxAge, Options(conf.Session).MaxAge)
	store, err := New(conf, nil)
	require.NoError(t, err)
	roundTrip(t, store)
}

func newMiniRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := New(newConf(StoreRedis, t), client)
	require.NoError(t, err)
	return store.(*RedisStore), mr
}

func TestRedisStore_miniredis(t *testing.T) {
	store, mr := newMiniRedisStore(t)

	roundTrip(t, store)
	assert.Empty(t, mr.Keys(), "expired session left in redis")
}

func TestRedisStore_unknownID(t *testing.T) {
	store, mr := newMiniRedisStore(t)

	encoded, err := securecookie.EncodeMulti(cookieName, "unknown-id", store.Codecs...)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: encoded})

	sess, err := store.New(req, cookieName)
	require.NoError(t, err)
	assert.True(t, sess.IsNew)
	assert.Empty(t, sess.ID)

	// saving issues a fresh id instead of the one from the cookie
	require.NoError(t, sess.Save(req, httptest.NewRecorder()))
	assert.NotEqual(t, "unknown-id", sess.ID)
	assert.False(t, mr.Exists(keyPrefix+"unknown-id"))
	assert.True(t, mr.Exists(keyPrefix+sess.ID))
}

func TestRedisStore_ttl(t *testing.T) {
	store, mr := newMiniRedisStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := store.New(req, cookieName)
	require.NoError(t, err)
	sess.Values["username"] = "Bob"
	require.NoError(t, sess.Save(req, httptest.NewRecorder()))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+sess.ID))

	// browser-session cookies still expire server-side
	store.Options.MaxAge = 0
	sess, err = store.New(httptest.NewRequest(http.MethodGet, "/", nil), cookieName)
	require.NoError(t, err)
	require.NoError(t, sess.Save(req, httptest.NewRecorder()))
	assert.Equal(t, time.Duration(defaultMaxAge)*time.Second, mr.TTL(keyPrefix+sess.ID))
}

// saveAndReload stores a session and returns it as loaded from a request carrying its cookie.
func saveAndReload(t *testing.T, store sessions.Store) (*sessions.Session, *http.Cookie) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	sess, err := store.Get(req, cookieName)
	require.NoError(t, err)
	sess.Values["username"] = "Bob"
	require.NoError(t, sess.Save(req, rec))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	sess, err = store.Get(req, cookieName)
	require.NoError(t, err)
	require.False(t, sess.IsNew)
	return sess, cookies[0]
}

func TestErase(t *testing.T) {
	stores := map[string]func(t *testing.T) sessions.Store{
		StoreFilesystem: func(t *testing.T) sessions.Store {
			store, err := New(newConf(StoreFilesystem, t), nil)
			require.NoError(t, err)
			return store
		},
		StoreRedis: func(t *testing.T) sessions.Store {
			store, _ := newMiniRedisStore(t)
			return store
		},
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			sess, cookie := saveAndReload(t, store)
			id := sess.ID

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			require.NoError(t, Erase(req, sess))

			// the in-memory session is untouched
			assert.Equal(t, id, sess.ID)
			assert.Equal(t, "Bob", sess.Values["username"])
			assert.Equal(t, 3600, sess.Options.MaxAge)

			// but the old cookie no longer resolves to stored data
			req = httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(cookie)
			replayed, _ := store.Get(req, cookieName)
			require.NotNil(t, replayed)
			assert.True(t, replayed.IsNew)
			assert.Empty(t, replayed.Values)
		})
	}
}

func TestErase_unsaved(t *testing.T) {
	store, mr := newMiniRedisStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := store.New(req, cookieName)
	require.NoError(t, err)
	assert.NoError(t, Erase(req, sess))
	assert.NoError(t, Erase(req, nil))
	assert.Empty(t, mr.Keys())
}
