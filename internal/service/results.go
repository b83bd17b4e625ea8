// Package service records completed attempts and keeps per-user rollups in sync.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/scoring"
	"github.com/verte-zerg/codetype/internal/session"
	"github.com/verte-zerg/codetype/internal/stats"
	"github.com/verte-zerg/codetype/internal/store"
)

// ErrInvalidResult is returned for results that fail validation.
var ErrInvalidResult = errors.New("invalid test result")

// Store is the persistence the service needs.
type Store interface {
	GetSnippet(ctx context.Context, id string) (model.Snippet, error)
	InsertResult(ctx context.Context, result model.TestResult, chars []model.CharStats) (model.TestResult, error)
	ListResults(ctx context.Context, cfg model.StatsConfig) ([]model.ResultAggregate, error)
	GetUserStats(ctx context.Context, userID string) (model.UserStats, error)
	UpsertUserStats(ctx context.Context, st model.UserStats) error
	RefreshGlobalRanks(ctx context.Context) error
	UpsertProficiency(ctx context.Context, p model.LanguageProficiency) error
	ListAchievements(ctx context.Context) ([]model.Achievement, error)
	AwardAchievement(ctx context.Context, userID, achievementID string, earnedAt time.Time) (bool, error)
}

// RecordInput is a completed attempt to store.
type RecordInput struct {
	SnippetID   string
	WPM         float64
	Accuracy    float64
	TimeSpent   int
	Errors      int
	CompletedAt time.Time
	Chars       []model.CharStats
}

// Recorded is what Record stored and derived.
type Recorded struct {
	Result model.TestResult
	Stats  model.UserStats
	Earned []model.Achievement
}

// Results records attempts.
type Results struct {
	st  Store
	now func() time.Time
}

// NewResults returns a Results service backed by st.
func NewResults(st Store) *Results {
	return &Results{st: st, now: time.Now}
}

// Validate checks the ranges of a result.
func (in RecordInput) Validate() error {
	var errs []error
	if in.SnippetID == "" {
		errs = append(errs, errors.New("snippetId is required"))
	}
	if in.WPM < 0 {
		errs = append(errs, errors.New("wpm must not be negative"))
	}
	if in.Accuracy < 0 || in.Accuracy > 100 {
		errs = append(errs, errors.New("accuracy must be between 0 and 100"))
	}
	if in.TimeSpent < 0 {
		errs = append(errs, errors.New("timeSpent must not be negative"))
	}
	if in.Errors < 0 {
		errs = append(errs, errors.New("errors must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	return nil
}

// Record stores a result for userID and refreshes the user's stats,
// language proficiency, global rank and achievements.
func (s *Results) Record(ctx context.Context, userID string, in RecordInput) (Recorded, error) {
	if err := in.Validate(); err != nil {
		return Recorded{}, err
	}
	snippet, err := s.st.GetSnippet(ctx, in.SnippetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Recorded{}, fmt.Errorf("%w: unknown snippet %s", ErrInvalidResult, in.SnippetID)
		}
		return Recorded{}, fmt.Errorf("failed to load snippet: %w", err)
	}
	completedAt := in.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.now()
	}

	result, err := s.st.InsertResult(ctx, model.TestResult{
		UserID:      userID,
		SnippetID:   in.SnippetID,
		WPM:         in.WPM,
		Accuracy:    in.Accuracy,
		TimeSpent:   in.TimeSpent,
		Errors:      in.Errors,
		CompletedAt: completedAt,
	}, in.Chars)
	if err != nil {
		return Recorded{}, fmt.Errorf("failed to insert result: %w", err)
	}

	history, err := s.st.ListResults(ctx, model.StatsConfig{UserID: userID})
	if err != nil {
		return Recorded{}, fmt.Errorf("failed to list results: %w", err)
	}
	userStats, err := s.refreshUserStats(ctx, userID, history)
	if err != nil {
		return Recorded{}, err
	}
	if err := s.refreshProficiency(ctx, userID, snippet.LanguageID, history); err != nil {
		return Recorded{}, err
	}
	earned, err := s.awardAchievements(ctx, userID, userStats, history)
	if err != nil {
		return Recorded{}, err
	}
	return Recorded{Result: result, Stats: userStats, Earned: earned}, nil
}

// UserStats returns the stats for userID, creating an empty row on first access.
func (s *Results) UserStats(ctx context.Context, userID string) (model.UserStats, error) {
	st, err := s.st.GetUserStats(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.UserStats{}, err
	}
	if err := s.st.UpsertUserStats(ctx, model.UserStats{UserID: userID, UpdatedAt: s.now()}); err != nil {
		return model.UserStats{}, fmt.Errorf("failed to create user stats: %w", err)
	}
	return s.st.GetUserStats(ctx, userID)
}

func (s *Results) refreshUserStats(ctx context.Context, userID string, history []model.ResultAggregate) (model.UserStats, error) {
	summary := stats.Summarize(history)
	if err := s.st.UpsertUserStats(ctx, model.UserStats{
		UserID:          userID,
		TotalTests:      summary.Tests,
		AverageWPM:      summary.AverageWPM,
		AverageAccuracy: summary.AverageAccuracy,
		BestWPM:         summary.BestWPM,
		BestAccuracy:    summary.BestAccuracy,
		UpdatedAt:       s.now(),
	}); err != nil {
		return model.UserStats{}, fmt.Errorf("failed to update user stats: %w", err)
	}
	if err := s.st.RefreshGlobalRanks(ctx); err != nil {
		return model.UserStats{}, fmt.Errorf("failed to refresh ranks: %w", err)
	}
	return s.st.GetUserStats(ctx, userID)
}

func (s *Results) refreshProficiency(ctx context.Context, userID, languageID string, history []model.ResultAggregate) error {
	if languageID == "" {
		return nil
	}
	inLang := lo.Filter(history, func(r model.ResultAggregate, _ int) bool { return r.LanguageID == languageID })
	summary := stats.Summarize(inLang)
	if err := s.st.UpsertProficiency(ctx, model.LanguageProficiency{
		UserID:           userID,
		LanguageID:       languageID,
		AverageWPM:       summary.AverageWPM,
		AverageAccuracy:  summary.AverageAccuracy,
		TestsCompleted:   summary.Tests,
		ProficiencyLevel: stats.ProficiencyLevel(summary.AverageWPM),
		UpdatedAt:        s.now(),
	}); err != nil {
		return fmt.Errorf("failed to update proficiency: %w", err)
	}
	return nil
}

func (s *Results) awardAchievements(ctx context.Context, userID string, st model.UserStats, history []model.ResultAggregate) ([]model.Achievement, error) {
	all, err := s.st.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	metrics := Metrics{
		TotalTests:   st.TotalTests,
		AverageWPM:   st.AverageWPM,
		BestWPM:      st.BestWPM,
		BestAccuracy: st.BestAccuracy,
		Languages: len(lo.Uniq(lo.FilterMap(history, func(r model.ResultAggregate, _ int) (string, bool) {
			return r.LanguageID, r.LanguageID != ""
		}))),
	}
	var earned []model.Achievement
	now := s.now()
	for _, a := range all {
		met, err := Met(a.Criteria, metrics)
		if err != nil {
			// Broken criteria never award.
			continue
		}
		if !met {
			continue
		}
		added, err := s.st.AwardAchievement(ctx, userID, a.ID, now)
		if err != nil {
			return earned, fmt.Errorf("failed to award achievement: %w", err)
		}
		if added {
			earned = append(earned, a)
		}
	}
	return earned, nil
}

// Sink adapts the service into a session result sink for userID. Failures are
// logged and not retried. onRecorded, when set, sees every stored result.
func (s *Results) Sink(ctx context.Context, userID string, log *zap.Logger, onRecorded func(Recorded)) session.ResultSink {
	return session.SinkFunc(func(r session.Result) {
		rec, err := s.Record(ctx, userID, FromSession(r))
		if err != nil {
			log.Error("Failed to record result",
				zap.String("user_id", userID),
				zap.String("snippet_id", r.SnippetID),
				zap.Error(err))
			return
		}
		log.Info("Result recorded",
			zap.String("user_id", userID),
			zap.String("result_id", rec.Result.ID),
			zap.Float64("wpm", rec.Result.WPM),
			zap.Float64("accuracy", rec.Result.Accuracy))
		if onRecorded != nil {
			onRecorded(rec)
		}
	})
}

// FromSession converts a session result into a RecordInput.
func FromSession(r session.Result) RecordInput {
	return RecordInput{
		SnippetID:   r.SnippetID,
		WPM:         float64(r.WPM),
		Accuracy:    r.Accuracy,
		TimeSpent:   r.TimeSpent,
		Errors:      r.Errors,
		CompletedAt: r.CompletedAt,
		Chars: lo.Map(r.Chars, func(c scoring.CharCount, _ int) model.CharStats {
			return model.CharStats{Char: c.Char, Correct: c.Correct, Incorrect: c.Incorrect}
		}),
	}
}
