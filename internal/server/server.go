// Package server exposes the REST API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verte-zerg/codetype/internal/generator"
	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/service"
	"github.com/verte-zerg/codetype/internal/session"
)

// Store is the persistence the handlers read from.
type Store interface {
	Ping(ctx context.Context) error
	UpsertUser(ctx context.Context, u model.User) (model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	ListLanguages(ctx context.Context) ([]model.Language, error)
	GetLanguage(ctx context.Context, id string) (model.Language, error)
	ListSnippets(ctx context.Context, languageID, difficulty string) ([]model.Snippet, error)
	GetSnippet(ctx context.Context, id string) (model.Snippet, error)
	ListUserResults(ctx context.Context, userID string, limit int) ([]model.TestResult, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	ListAchievements(ctx context.Context) ([]model.Achievement, error)
	ListUserAchievements(ctx context.Context, userID string) ([]model.UserAchievement, error)
	ListProficiency(ctx context.Context, userID string) ([]model.LanguageProficiency, error)
}

// Options configures the server.
type Options struct {
	SessionSecret  string
	Production     bool
	RateLimitRPS   float64
	RateLimitBurst int
	// LiveSessionTTL drops typing sessions idle for longer than this.
	LiveSessionTTL time.Duration
	// TestDuration is the time budget of a typing session.
	TestDuration time.Duration
	TickInterval time.Duration
	CleanupEvery time.Duration
	Clock        session.Clock
}

func (o *Options) applyDefaults() {
	if o.RateLimitRPS <= 0 {
		o.RateLimitRPS = 5
	}
	if o.RateLimitBurst <= 0 {
		o.RateLimitBurst = 10
	}
	if o.LiveSessionTTL <= 0 {
		o.LiveSessionTTL = 30 * time.Minute
	}
	if o.TestDuration <= 0 {
		o.TestDuration = session.DefaultDuration
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.CleanupEvery <= 0 {
		o.CleanupEvery = time.Minute
	}
	if o.Clock == nil {
		o.Clock = session.SystemClock{}
	}
}

// Server wires handlers, middleware and live typing sessions.
type Server struct {
	st        Store
	results   *service.Results
	log       *zap.Logger
	opts      Options
	gen       *generator.Generator
	live      *liveRegistry
	limiter   *ipLimiter
	engine    *gin.Engine
	startedAt time.Time
	stop      chan struct{}
}

// New builds a server. Call Close to stop background cleanup.
func New(st Store, results *service.Results, log *zap.Logger, opts Options) *Server {
	opts.applyDefaults()
	s := &Server{
		st:        st,
		results:   results,
		log:       log,
		opts:      opts,
		gen:       generator.New(),
		live:      newLiveRegistry(),
		limiter:   newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		startedAt: time.Now(),
		stop:      make(chan struct{}),
	}
	s.engine = s.routes()
	go s.cleanupLoop()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close stops background work and every live typing session.
func (s *Server) Close() {
	select {
	case <-s.stop:
		return
	default:
		close(s.stop)
	}
	s.live.closeAll()
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutdown signal received, shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("HTTP server shutdown", zap.Error(err))
	}
	s.Close()
	s.log.Info("Server shutdown complete")
	return nil
}

func (s *Server) cleanupLoop() {
	ticker := time.NewTicker(s.opts.CleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			if n := s.live.sweep(now, s.opts.LiveSessionTTL); n > 0 {
				s.log.Info("Cleaned up expired typing sessions", zap.Int("count", n))
			}
			s.limiter.sweep(now, time.Hour)
		}
	}
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(RequestLogger(s.log))
	router.Use(secureHeaders(s.opts.Production))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	store := cookie.NewStore([]byte(s.opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Production,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("codetype", store))
	router.Use(s.userLoader())

	router.GET("/healthz", noStore(), s.healthz)

	api := router.Group("/api")
	api.GET("/login", s.login)
	api.GET("/logout", s.logout)

	public := api.Group("", publicCache(5*time.Minute))
	public.GET("/languages", s.listLanguages)
	public.GET("/languages/:id", s.getLanguage)
	public.GET("/languages/:id/snippets", s.listSnippets)
	public.GET("/snippets/:id", s.getSnippet)
	public.GET("/achievements", s.listAchievements)

	api.GET("/languages/:id/snippets/random", noStore(), s.randomSnippet)
	api.GET("/leaderboard", noStore(), s.leaderboard)

	authed := api.Group("", noStore(), authRequired())
	authed.GET("/auth/user", s.currentUser)
	authed.POST("/test-results", s.limiter.middleware(), s.createResult)

	self := authed.Group("/users/:userId", selfOnly())
	self.GET("/test-results", s.userResults)
	self.GET("/stats", s.userStats)
	self.GET("/achievements", s.userAchievements)
	self.GET("/proficiency", s.userProficiency)

	live := authed.Group("/sessions")
	live.POST("", s.limiter.middleware(), s.startSession)
	live.GET("/:id", s.getSession)
	live.POST("/:id/input", s.sessionInput)
	live.POST("/:id/reset", s.limiter.middleware(), s.resetSession)
	live.DELETE("/:id", s.deleteSession)

	return router
}
