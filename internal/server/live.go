package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/service"
	"github.com/verte-zerg/codetype/internal/session"
)

// liveSession is a typing attempt driven over HTTP. mu serializes the
// controller between requests and the ticker goroutine.
type liveSession struct {
	mu         sync.Mutex
	id         string
	userID     string
	ctrl       *session.Controller
	lastAccess time.Time
	recorded   *service.Recorded
}

func (ls *liveSession) response() sessionResponse {
	return newSessionResponse(ls.id, ls.ctrl.View(), ls.recorded)
}

type liveRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession
}

func newLiveRegistry() *liveRegistry {
	return &liveRegistry{sessions: make(map[string]*liveSession)}
}

func (r *liveRegistry) get(id string) (*liveSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ls, ok := r.sessions[id]
	return ls, ok
}

func (r *liveRegistry) put(ls *liveSession) {
	r.mu.Lock()
	r.sessions[ls.id] = ls
	r.mu.Unlock()
}

func (r *liveRegistry) remove(id string) (*liveSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.sessions[id]
	delete(r.sessions, id)
	return ls, ok
}

func (r *liveRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// sweep closes and drops sessions idle for longer than ttl.
func (r *liveRegistry) sweep(now time.Time, ttl time.Duration) int {
	r.mu.Lock()
	var expired []*liveSession
	for id, ls := range r.sessions {
		ls.mu.Lock()
		idle := now.Sub(ls.lastAccess)
		ls.mu.Unlock()
		if idle > ttl {
			expired = append(expired, ls)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, ls := range expired {
		ls.mu.Lock()
		ls.ctrl.Close()
		ls.mu.Unlock()
	}
	return len(expired)
}

func (r *liveRegistry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*liveSession)
	r.mu.Unlock()
	for _, ls := range all {
		ls.mu.Lock()
		ls.ctrl.Close()
		ls.mu.Unlock()
	}
}

// tickTimer calls Tick on its session every interval until stopped.
type tickTimer struct {
	done chan struct{}
	once sync.Once
}

func (t *tickTimer) Stop() {
	t.once.Do(func() { close(t.done) })
}

func startTicker(ls *liveSession, interval time.Duration) *tickTimer {
	t := &tickTimer{done: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
			}
			ls.mu.Lock()
			select {
			case <-t.done:
				// Stopped while waiting for the lock.
				ls.mu.Unlock()
				return
			default:
			}
			ls.ctrl.Tick()
			ls.mu.Unlock()
		}
	}()
	return t
}

func (s *Server) newLiveSession(userID string, snippet model.Snippet) *liveSession {
	ls := &liveSession{
		id:         uuid.NewString(),
		userID:     userID,
		lastAccess: time.Now(),
	}
	sink := s.results.Sink(context.Background(), userID, s.log, func(rec service.Recorded) {
		ls.recorded = &rec
	})
	ls.ctrl = session.New(
		session.Reference{SnippetID: snippet.ID, Content: snippet.Code},
		session.WithClock(s.opts.Clock),
		session.WithDuration(s.opts.TestDuration),
		session.WithSink(sink),
		session.WithTimer(func() session.Timer { return startTicker(ls, s.opts.TickInterval) }),
	)
	return ls
}

func (s *Server) pickSnippet(c *gin.Context, snippetID, languageID, difficulty string) (model.Snippet, bool) {
	ctx := c.Request.Context()
	if snippetID != "" {
		snippet, err := s.st.GetSnippet(ctx, snippetID)
		if err != nil {
			s.fail(c, "Snippet", err)
			return model.Snippet{}, false
		}
		return snippet, true
	}
	snippets, err := s.st.ListSnippets(ctx, languageID, difficulty)
	if err != nil {
		s.fail(c, "snippets", err)
		return model.Snippet{}, false
	}
	snippet, ok := s.gen.Pick(snippets)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Message: "No snippets found"})
		return model.Snippet{}, false
	}
	return snippet, true
}

func (s *Server) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	snippet, ok := s.pickSnippet(c, req.SnippetID, req.LanguageID, req.Difficulty)
	if !ok {
		return
	}
	user, _ := currentUser(c)
	ls := s.newLiveSession(user.ID, snippet)
	s.live.put(ls)
	s.log.Info("Typing session started",
		zap.String("session_id", ls.id),
		zap.String("user_id", user.ID),
		zap.String("snippet_id", snippet.ID))

	ls.mu.Lock()
	resp := ls.response()
	ls.mu.Unlock()
	c.JSON(http.StatusCreated, resp)
}

// owned returns the locked session when the caller owns it.
// The caller must unlock it.
func (s *Server) owned(c *gin.Context) (*liveSession, bool) {
	ls, ok := s.live.get(c.Param("id"))
	user, _ := currentUser(c)
	if !ok || ls.userID != user.ID {
		c.JSON(http.StatusNotFound, errorResponse{Message: "Session not found"})
		return nil, false
	}
	ls.mu.Lock()
	ls.lastAccess = time.Now()
	return ls, true
}

func (s *Server) getSession(c *gin.Context) {
	ls, ok := s.owned(c)
	if !ok {
		return
	}
	resp := ls.response()
	ls.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) sessionInput(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ls, ok := s.owned(c)
	if !ok {
		return
	}
	ls.ctrl.Input(*req.Text)
	resp := ls.response()
	ls.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) resetSession(c *gin.Context) {
	var req resetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	var snippet model.Snippet
	if req.SnippetID != "" {
		var ok bool
		if snippet, ok = s.pickSnippet(c, req.SnippetID, "", ""); !ok {
			return
		}
	}

	ls, ok := s.owned(c)
	if !ok {
		return
	}
	if snippet.ID != "" {
		ls.ctrl.Reset(session.Reference{SnippetID: snippet.ID, Content: snippet.Code})
	} else {
		ls.ctrl.Restart()
	}
	ls.recorded = nil
	resp := ls.response()
	ls.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) deleteSession(c *gin.Context) {
	ls, ok := s.owned(c)
	if !ok {
		return
	}
	ls.ctrl.Close()
	ls.mu.Unlock()
	s.live.remove(ls.id)
	c.Status(http.StatusNoContent)
}
