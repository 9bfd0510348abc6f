package demosite

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	cookieName = "session-id"
	visitorKey = "visitor"
)

// requestID adds a unique request ID to each request.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger logs every request once it has been served.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}

// session attaches the visitor behind the session cookie, issuing a new
// cookie when there is none.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(cookieName)
		newID, v := s.sessions.get(id, s.now())
		if newID != id {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, newID, 0, "/", "", false, true)
		}
		c.Set(visitorKey, v)
		c.Next()
	}
}

// requireLogin sends anonymous visitors back to the login page with the
// same banner the live site shows.
func requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v := visitorFrom(c)
		v.mu.Lock()
		in := v.account != nil
		v.mu.Unlock()
		if in {
			c.Next()
			return
		}
		page := strings.TrimPrefix(c.Request.URL.Path, "/")
		c.HTML(http.StatusOK, "login.html", loginView{
			Banner: fmt.Sprintf("Epic sadface: You can only access '/%s' when you are logged in.", page),
		})
		c.Abort()
	}
}

func visitorFrom(c *gin.Context) *visitor {
	return c.MustGet(visitorKey).(*visitor)
}
