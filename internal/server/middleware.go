package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/unrolled/secure"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/store"
)

const (
	requestIDHeader = "X-Request-Id"
	userIDKey       = "userID"
	userContextKey  = "user"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs every request through log. Successful requests are
// logged at debug level.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		}
		switch {
		case status >= 500:
			log.Error("Server error", fields...)
		case status >= 400:
			log.Warn("Client error", fields...)
		default:
			log.Debug("Request processed", fields...)
		}
	}
}

func secureHeaders(production bool) gin.HandlerFunc {
	mw := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      !production,
	})
	return func(c *gin.Context) {
		if err := mw.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}

func publicCache(maxAge time.Duration) gin.HandlerFunc {
	return cachecontrol.New(cachecontrol.Config{
		Public: true,
		MaxAge: cachecontrol.Duration(maxAge),
	})
}

func noStore() gin.HandlerFunc {
	return cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter is a token bucket per client IP.
type ipLimiter struct {
	mu      sync.RWMutex
	entries map[string]*limiterEntry
	rps     float64
	burst   int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{entries: make(map[string]*limiterEntry), rps: rps, burst: burst}
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.RLock()
	e, ok := l.entries[ip]
	l.mu.RUnlock()
	if ok {
		l.mu.Lock()
		e.lastSeen = now
		l.mu.Unlock()
		return e.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[ip]; ok {
		e.lastSeen = now
		return e.limiter
	}
	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.entries[ip] = &limiterEntry{limiter: lim, lastSeen: now}
	return lim
}

func (l *ipLimiter) sweep(now time.Time, idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, e := range l.entries {
		if now.Sub(e.lastSeen) > idle {
			delete(l.entries, ip)
		}
	}
}

func (l *ipLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Message: "Too many requests"})
			return
		}
		c.Next()
	}
}

// userLoader resolves the session cookie into a user on the context.
func (s *Server) userLoader() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		id, ok := sess.Get(userIDKey).(string)
		if !ok || id == "" {
			c.Next()
			return
		}
		user, err := s.st.GetUser(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(userContextKey, user)
		case errors.Is(err, store.ErrNotFound):
			sess.Delete(userIDKey)
			if err := sess.Save(); err != nil {
				s.log.Warn("Failed to clear stale session", zap.Error(err))
			}
		default:
			s.log.Error("Failed to load session user", zap.String("user_id", id), zap.Error(err))
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return model.User{}, false
	}
	u, ok := v.(model.User)
	return u, ok
}

func authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
			return
		}
		c.Next()
	}
}

// selfOnly rejects access to another user's data.
func selfOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, _ := currentUser(c)
		if c.Param("userId") != u.ID {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Message: "Forbidden"})
			return
		}
		c.Next()
	}
}
