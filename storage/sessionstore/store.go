// Package sessionstore builds the gorilla/sessions backends the portal keeps its sessions in.
package sessionstore

import (
	"crypto/sha256"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/eduquest/academy/core"
)

const (
	StoreCookie     = "cookie"
	StoreFilesystem = "filesystem"
	StoreRedis      = "redis"
)

var errNoRedis = errors.New("redis session store requires a redis client")

// keyPair derives the signing and encryption keys from the application secret.
func keyPair(secret string) (hashKey, blockKey []byte) {
	h := sha256.Sum256([]byte("eduquest.session.hash:" + secret))
	b := sha256.Sum256([]byte("eduquest.session.block:" + secret))
	return h[:], b[:]
}

// Options are the cookie options shared by every backend.
// A non-positive MaxAge falls back to defaultMaxAge: the filesystem store erases sessions saved with MaxAge <= 0.
func Options(conf core.SessionConfig) *sessions.Options {
	maxAge := conf.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   conf.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// New returns the session store selected by conf.Session.Store.
// client is only used by the redis store and may be nil otherwise.
func New(conf *core.Config, client *redis.Client) (sessions.Store, error) {
	hashKey, blockKey := keyPair(conf.SecretKey)
	opts := Options(conf.Session)

	switch conf.Session.Store {
	case StoreCookie:
		store := sessions.NewCookieStore(hashKey, blockKey)
		store.Options = opts
		return store, nil
	case StoreFilesystem, "":
		if conf.Session.Path != "" {
			if err := os.MkdirAll(conf.Session.Path, 0o700); err != nil {
				return nil, errors.Wrap(err, "creating session directory")
			}
		}
		store := sessions.NewFilesystemStore(conf.Session.Path, hashKey, blockKey)
		store.MaxLength(0)
		store.Options = opts
		return store, nil
	case StoreRedis:
		if client == nil {
			return nil, errNoRedis
		}
		store := NewRedisStore(client, hashKey, blockKey)
		store.Options = opts
		return store, nil
	}
	return nil, errors.Errorf("unknown session store %q", conf.Session.Store)
}
