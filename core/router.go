package core

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the credential store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionRevoker is implemented by session stores that keep state server-side.
type SessionRevoker interface {
	Revoke(ctx context.Context, id string) error
}

// NewRouter constructs the Gin engine with routes wired. A nil registry disables metrics.
func NewRouter(cfg Config, store sessions.Store, auth Authenticator, digester Digester, db Pinger, reg *prometheus.Registry) *gin.Engine {
	// Login bodies carry exactly username and password; anything else is a 400.
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.Default()

	// Global middleware: CORS -> session
	r.Use(CORSMiddleware(cfg))
	r.Use(SessionMiddleware(cfg, store))

	var metrics *LoginMetrics
	if reg != nil {
		metrics = NewLoginMetrics(reg)
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.Printf("readiness check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				metrics.Observe(invalidRequest("invalid json"), 0)
				respondError(c, http.StatusBadRequest, "invalid json")
				return
			}

			start := time.Now()
			principal, err := auth.Login(c.Request.Context(), req.Username, digester.Digest(req.Password))
			metrics.Observe(err, time.Since(start))
			if err != nil {
				status, withBody := statusForKind(KindOf(err))
				var ae *AuthError
				if withBody && errors.As(err, &ae) {
					log.Printf("login rejected user=%q kind=%s", req.Username, ae.Kind)
					respondError(c, status, ae.Message)
					return
				}
				log.Printf("login failed user=%q: %v", req.Username, err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}

			session := sessionFrom(c)
			if session == nil {
				log.Printf("login user=%q: no session in context", principal.Username)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			// Issue a fresh session ID on every login; the previous one stops working.
			if rv, ok := store.(SessionRevoker); ok && !session.IsNew {
				if err := rv.Revoke(c.Request.Context(), session.ID); err != nil {
					log.Printf("login user=%q: failed to revoke previous session: %v", principal.Username, err)
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
			}
			session.ID = ""
			storePrincipal(session, principal)
			applySessionOptions(cfg, session)
			if err := session.Save(c.Request, c.Writer); err != nil {
				log.Printf("login user=%q: failed to set session: %v", principal.Username, err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}

			log.Printf("login succeeded user=%q role=%q", principal.Username, principal.Role)
			c.JSON(http.StatusOK, principal)
		})

		api.POST("/auth/logout", func(c *gin.Context) {
			sess := sessionFrom(c)
			if _, ok := principalFromSession(sess); !ok {
				respondError(c, http.StatusUnauthorized, "login required")
				return
			}
			sess.Values = map[interface{}]interface{}{}
			applySessionOptions(cfg, sess)
			sess.Options.MaxAge = -1 // Must be set AFTER applySessionOptions to properly delete cookie
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Printf("logout: failed to clear session: %v", err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Status(http.StatusNoContent)
		})

		api.GET("/auth/session", RequirePrincipal(), func(c *gin.Context) {
			p, _ := c.Get(contextPrincipalKey)
			c.JSON(http.StatusOK, p)
		})
	}

	return r
}
