package server

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verte-zerg/codetype/internal/model"
)

// guestUser is signed in by /api/login until a real identity provider exists.
var guestUser = model.User{
	ID:       "mock-user-12345",
	Username: "GuestCoder",
	Email:    "guest@codetype.pro",
}

func (s *Server) login(c *gin.Context) {
	user, err := s.st.UpsertUser(c.Request.Context(), guestUser)
	if err != nil {
		s.log.Error("Failed to upsert guest user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to sign in"})
		return
	}
	sess := sessions.Default(c)
	sess.Set(userIDKey, user.ID)
	if err := sess.Save(); err != nil {
		s.log.Error("Failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to sign in"})
		return
	}
	s.log.Info("User signed in", zap.String("user_id", user.ID))
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		s.log.Warn("Failed to clear session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) currentUser(c *gin.Context) {
	user, _ := currentUser(c)
	c.JSON(http.StatusOK, user)
}
