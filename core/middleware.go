package core

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const sessionName = "faculty_session"
const sessionMaxAge = 18000 // 5h

const contextSessionKey = "session"

// SessionMiddleware loads the caller's session and exposes it under "session".
// A session that cannot be decoded (rotated key, expired server-side) is replaced by a fresh one.
func SessionMiddleware(cfg Config, store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, sessionName)
		if err != nil {
			log.Printf("session load failed, starting a new session: %v", err)
		}
		if session == nil {
			if session, err = store.New(c.Request, sessionName); session == nil {
				log.Printf("session create failed: %v", err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}
		applySessionOptions(cfg, session)
		c.Set(contextSessionKey, session)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *sessions.Session {
	v, _ := c.Get(contextSessionKey)
	sess, _ := v.(*sessions.Session)
	return sess
}

// CORSMiddleware adds the cross-origin headers to every response, whatever the outcome
// of the handler. Preflight requests are answered directly.
func CORSMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}
	var fixed string
	if len(cfg.AllowedOrigins) == 1 {
		fixed = cfg.AllowedOrigins[0]
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[strings.ToLower(origin)]; ok && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		} else if fixed != "" {
			c.Header("Access-Control-Allow-Origin", fixed)
		}
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", "Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	session.Options.Path = "/"
	session.Options.MaxAge = sessionMaxAge
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure
	session.Options.SameSite = sameSiteFromString(cfg.CookieSameSite)
	// Browsers drop SameSite=None cookies that are not Secure.
	if session.Options.SameSite == http.SameSiteNoneMode {
		session.Options.Secure = true
	}
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
