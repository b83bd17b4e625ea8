package server

import (
	"time"

	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/service"
	"github.com/verte-zerg/codetype/internal/session"
)

type errorResponse struct {
	Message string `json:"message"`
}

type limitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type snippetQuery struct {
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
}

type createResultRequest struct {
	SnippetID string   `json:"snippetId" binding:"required"`
	WPM       *float64 `json:"wpm" binding:"required,gte=0"`
	Accuracy  *float64 `json:"accuracy" binding:"required,gte=0,lte=100"`
	TimeSpent *int     `json:"timeSpent" binding:"required,gte=0"`
	Errors    *int     `json:"errors" binding:"required,gte=0"`
}

func (r createResultRequest) input() service.RecordInput {
	return service.RecordInput{
		SnippetID: r.SnippetID,
		WPM:       *r.WPM,
		Accuracy:  *r.Accuracy,
		TimeSpent: *r.TimeSpent,
		Errors:    *r.Errors,
	}
}

type recordedResponse struct {
	Result model.TestResult    `json:"result"`
	Stats  model.UserStats     `json:"stats"`
	Earned []model.Achievement `json:"earned"`
}

func newRecordedResponse(rec service.Recorded) recordedResponse {
	earned := rec.Earned
	if earned == nil {
		earned = []model.Achievement{}
	}
	return recordedResponse{Result: rec.Result, Stats: rec.Stats, Earned: earned}
}

type startSessionRequest struct {
	SnippetID  string `json:"snippetId"`
	LanguageID string `json:"languageId" binding:"required_without=SnippetID"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
}

type inputRequest struct {
	Text *string `json:"text" binding:"required"`
}

type resetRequest struct {
	SnippetID string `json:"snippetId"`
}

type sessionResponse struct {
	ID              string            `json:"id"`
	SnippetID       string            `json:"snippetId"`
	Phase           string            `json:"phase"`
	Reference       string            `json:"reference"`
	Typed           string            `json:"typed"`
	WPM             int               `json:"wpm"`
	Accuracy        float64           `json:"accuracy"`
	Errors          int               `json:"errors"`
	Progress        float64           `json:"progress"`
	ElapsedMs       int64             `json:"elapsedMs"`
	TimeRemainingMs int64             `json:"timeRemainingMs"`
	Result          *recordedResponse `json:"result,omitempty"`
}

func newSessionResponse(id string, v session.View, rec *service.Recorded) sessionResponse {
	resp := sessionResponse{
		ID:              id,
		SnippetID:       v.SnippetID,
		Phase:           v.Phase.String(),
		Reference:       v.Reference,
		Typed:           v.Typed,
		WPM:             v.RoundedWPM(),
		Accuracy:        v.Accuracy,
		Errors:          v.Errors,
		Progress:        v.Progress,
		ElapsedMs:       v.Elapsed.Milliseconds(),
		TimeRemainingMs: v.TimeRemaining.Milliseconds(),
	}
	if rec != nil {
		r := newRecordedResponse(*rec)
		resp.Result = &r
	}
	return resp
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
}

func uptime(since time.Time) string {
	return time.Since(since).Truncate(time.Second).String()
}
