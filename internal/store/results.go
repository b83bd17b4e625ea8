package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/codetype/internal/model"
)

// InsertResult stores a completed attempt and its per-character stats.
func (s *Store) InsertResult(ctx context.Context, result model.TestResult, chars []model.CharStats) (model.TestResult, error) {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TestResult{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		s.q(`INSERT INTO test_results (id, user_id, snippet_id, wpm, accuracy, time_spent, errors, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		result.ID,
		result.UserID,
		result.SnippetID,
		result.WPM,
		result.Accuracy,
		result.TimeSpent,
		result.Errors,
		formatTime(result.CompletedAt),
	); err != nil {
		return model.TestResult{}, err
	}

	for _, cs := range chars {
		if _, err = tx.ExecContext(ctx,
			s.q(`INSERT INTO result_char_stats (result_id, ch, correct, incorrect) VALUES (?, ?, ?, ?)`),
			result.ID, cs.Char, cs.Correct, cs.Incorrect,
		); err != nil {
			return model.TestResult{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return model.TestResult{}, err
	}
	return result, nil
}

// ListUserResults returns a user's most recent results, newest first.
func (s *Store) ListUserResults(ctx context.Context, userID string, limit int) ([]model.TestResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.query(ctx,
		`SELECT id, user_id, snippet_id, wpm, accuracy, time_spent, errors, completed_at
		 FROM test_results
		 WHERE user_id = ?
		 ORDER BY completed_at DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var results []model.TestResult
	for rows.Next() {
		var r model.TestResult
		var completedAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.SnippetID, &r.WPM, &r.Accuracy, &r.TimeSpent, &r.Errors, &completedAt); err != nil {
			return nil, err
		}
		parsed, err := parseTime(completedAt)
		if err != nil {
			return nil, err
		}
		r.CompletedAt = parsed
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListResults returns result aggregates filtered by stats config, oldest first.
func (s *Store) ListResults(ctx context.Context, cfg model.StatsConfig) ([]model.ResultAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.UserID != "" {
		clauses = append(clauses, "r.user_id = ?")
		args = append(args, cfg.UserID)
	}
	if cfg.Lang != "" {
		clauses = append(clauses, "l.name = ?")
		args = append(args, cfg.Lang)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "r.completed_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT r.id, r.completed_at, COALESCE(sn.language_id, ''), r.wpm, r.accuracy, r.time_spent, r.errors
		FROM test_results r
		LEFT JOIN code_snippets sn ON sn.id = r.snippet_id
		LEFT JOIN languages l ON l.id = sn.language_id
		WHERE %s
		ORDER BY r.completed_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var results []model.ResultAggregate
	for rows.Next() {
		var agg model.ResultAggregate
		var completedAt string
		if err := rows.Scan(&agg.ResultID, &completedAt, &agg.LanguageID, &agg.WPM, &agg.Accuracy, &agg.TimeSpent, &agg.Errors); err != nil {
			return nil, err
		}
		parsed, err := parseTime(completedAt)
		if err != nil {
			return nil, err
		}
		agg.CompletedAt = parsed
		results = append(results, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetWeakChars aggregates character stats over a user's most recent results.
func (s *Store) GetWeakChars(ctx context.Context, userID, languageID string, window int) ([]model.CharAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_results AS (
		SELECT r.id FROM test_results r
		LEFT JOIN code_snippets sn ON sn.id = r.snippet_id
		WHERE r.user_id = ? AND (? = '' OR sn.language_id = ?)
		ORDER BY r.completed_at DESC
		LIMIT ?
	)
	SELECT cs.ch, SUM(cs.correct) AS correct, SUM(cs.incorrect) AS incorrect
	FROM result_char_stats cs
	JOIN recent_results rr ON rr.id = cs.result_id
	GROUP BY cs.ch`

	rows, err := s.query(ctx, query, userID, languageID, languageID, window)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	return scanCharAggregates(rows)
}

// ListCharAggregatesForResults aggregates per-character stats across results.
func (s *Store) ListCharAggregatesForResults(ctx context.Context, resultIDs []string) ([]model.CharAggregate, error) {
	if len(resultIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(resultIDs))
	for i, id := range resultIDs {
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT ch, SUM(correct) AS correct, SUM(incorrect) AS incorrect
		FROM result_char_stats
		WHERE result_id IN (%s)
		GROUP BY ch`, placeholders(len(resultIDs)))
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	return scanCharAggregates(rows)
}

// ListCharStatsForResults returns per-result stats for selected characters.
func (s *Store) ListCharStatsForResults(ctx context.Context, resultIDs []string, chars []string) (map[string]map[string]model.CharAggregate, error) {
	if len(resultIDs) == 0 || len(chars) == 0 {
		return map[string]map[string]model.CharAggregate{}, nil
	}
	args := make([]any, 0, len(resultIDs)+len(chars))
	for _, id := range resultIDs {
		args = append(args, id)
	}
	for _, ch := range chars {
		args = append(args, ch)
	}

	query := fmt.Sprintf(`SELECT result_id, ch, correct, incorrect
		FROM result_char_stats
		WHERE result_id IN (%s) AND ch IN (%s)`, placeholders(len(resultIDs)), placeholders(len(chars)))
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	result := map[string]map[string]model.CharAggregate{}
	for rows.Next() {
		var resultID string
		var agg model.CharAggregate
		if err := rows.Scan(&resultID, &agg.Char, &agg.Correct, &agg.Incorrect); err != nil {
			return nil, err
		}
		if _, ok := result[resultID]; !ok {
			result[resultID] = map[string]model.CharAggregate{}
		}
		result[resultID][agg.Char] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanCharAggregates(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.CharAggregate, error) {
	var result []model.CharAggregate
	for rows.Next() {
		var agg model.CharAggregate
		if err := rows.Scan(&agg.Char, &agg.Correct, &agg.Incorrect); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
