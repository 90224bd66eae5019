package core

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const contextPrincipalKey = "principal"

// RequirePrincipal aborts with 401 unless the session carries a logged-in principal.
func RequirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principalFromSession(sessionFrom(c))
		if !ok {
			respondError(c, http.StatusUnauthorized, "login required")
			c.Abort()
			return
		}
		c.Set(contextPrincipalKey, p)
		c.Next()
	}
}

func storePrincipal(sess *sessions.Session, p Principal) {
	sess.Values = map[interface{}]interface{}{}
	sess.Values["username"] = p.Username
	sess.Values["role"] = p.Role
	sess.Values["authenticated_at"] = p.AuthenticatedAt.Unix()
}

func principalFromSession(sess *sessions.Session) (Principal, bool) {
	if sess == nil {
		return Principal{}, false
	}
	username, _ := sess.Values["username"].(string)
	if strings.TrimSpace(username) == "" {
		return Principal{}, false
	}
	role, _ := sess.Values["role"].(string)
	at, _ := sess.Values["authenticated_at"].(int64)
	return Principal{
		Username:        username,
		Role:            role,
		AuthenticatedAt: time.Unix(at, 0).UTC(),
	}, true
}
