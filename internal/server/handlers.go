package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/service"
	"github.com/verte-zerg/codetype/internal/store"
)

const (
	defaultResultsLimit     = 10
	defaultLeaderboardLimit = 50
)

// fail writes a 404 for missing rows and a logged 500 otherwise.
func (s *Server) fail(c *gin.Context, what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Message: what + " not found"})
		return
	}
	s.log.Error("Request failed",
		zap.String("what", what),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Message: err.Error()})
}

func (s *Server) healthz(c *gin.Context) {
	resp := healthResponse{
		Status:   "ok",
		Database: "ok",
		Uptime:   uptime(s.startedAt),
		Sessions: s.live.len(),
	}
	if err := s.st.Ping(c.Request.Context()); err != nil {
		s.log.Warn("Health check database ping failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listLanguages(c *gin.Context) {
	langs, err := s.st.ListLanguages(c.Request.Context())
	if err != nil {
		s.fail(c, "languages", err)
		return
	}
	if langs == nil {
		langs = []model.Language{}
	}
	c.JSON(http.StatusOK, langs)
}

func (s *Server) getLanguage(c *gin.Context) {
	lang, err := s.st.GetLanguage(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, "Language", err)
		return
	}
	c.JSON(http.StatusOK, lang)
}

func (s *Server) snippetsFor(c *gin.Context) ([]model.Snippet, bool) {
	var q snippetQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return nil, false
	}
	snippets, err := s.st.ListSnippets(c.Request.Context(), c.Param("id"), q.Difficulty)
	if err != nil {
		s.fail(c, "snippets", err)
		return nil, false
	}
	return snippets, true
}

func (s *Server) listSnippets(c *gin.Context) {
	snippets, ok := s.snippetsFor(c)
	if !ok {
		return
	}
	if snippets == nil {
		snippets = []model.Snippet{}
	}
	c.JSON(http.StatusOK, snippets)
}

func (s *Server) randomSnippet(c *gin.Context) {
	snippets, ok := s.snippetsFor(c)
	if !ok {
		return
	}
	snippet, found := s.gen.Pick(snippets)
	if !found {
		c.JSON(http.StatusNotFound, errorResponse{Message: "No snippets found"})
		return
	}
	c.JSON(http.StatusOK, snippet)
}

func (s *Server) getSnippet(c *gin.Context) {
	snippet, err := s.st.GetSnippet(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, "Snippet", err)
		return
	}
	c.JSON(http.StatusOK, snippet)
}

func (s *Server) createResult(c *gin.Context) {
	var req createResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, _ := currentUser(c)
	rec, err := s.results.Record(c.Request.Context(), user.ID, req.input())
	if err != nil {
		if errors.Is(err, service.ErrInvalidResult) {
			badRequest(c, err)
			return
		}
		s.fail(c, "result", err)
		return
	}
	for _, a := range rec.Earned {
		s.log.Info("Achievement earned", zap.String("user_id", user.ID), zap.String("achievement", a.Name))
	}
	c.JSON(http.StatusCreated, newRecordedResponse(rec))
}

func (s *Server) userResults(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultResultsLimit
	}
	results, err := s.st.ListUserResults(c.Request.Context(), c.Param("userId"), q.Limit)
	if err != nil {
		s.fail(c, "results", err)
		return
	}
	if results == nil {
		results = []model.TestResult{}
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) userStats(c *gin.Context) {
	st, err := s.results.UserStats(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.fail(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) leaderboard(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultLeaderboardLimit
	}
	entries, err := s.st.Leaderboard(c.Request.Context(), q.Limit)
	if err != nil {
		s.fail(c, "leaderboard", err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) listAchievements(c *gin.Context) {
	all, err := s.st.ListAchievements(c.Request.Context())
	if err != nil {
		s.fail(c, "achievements", err)
		return
	}
	if all == nil {
		all = []model.Achievement{}
	}
	c.JSON(http.StatusOK, all)
}

func (s *Server) userAchievements(c *gin.Context) {
	earned, err := s.st.ListUserAchievements(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.fail(c, "achievements", err)
		return
	}
	if earned == nil {
		earned = []model.UserAchievement{}
	}
	c.JSON(http.StatusOK, earned)
}

func (s *Server) userProficiency(c *gin.Context) {
	prof, err := s.st.ListProficiency(c.Request.Context(), c.Param("userId"))
	if err != nil {
		s.fail(c, "proficiency", err)
		return
	}
	if prof == nil {
		prof = []model.LanguageProficiency{}
	}
	c.JSON(http.StatusOK, prof)
}
