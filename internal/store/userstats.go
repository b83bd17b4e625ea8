package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/verte-zerg/codetype/internal/model"
)

// GetUserStats returns the stats rollup for a user.
func (s *Store) GetUserStats(ctx context.Context, userID string) (model.UserStats, error) {
	var st model.UserStats
	var rank sql.NullInt64
	var updatedAt string
	err := s.queryRow(ctx,
		`SELECT user_id, total_tests, average_wpm, average_accuracy, best_wpm, best_accuracy, global_rank, updated_at
		 FROM user_stats WHERE user_id = ?`, userID,
	).Scan(&st.UserID, &st.TotalTests, &st.AverageWPM, &st.AverageAccuracy, &st.BestWPM, &st.BestAccuracy, &rank, &updatedAt)
	if err != nil {
		return model.UserStats{}, notFound(err)
	}
	if rank.Valid {
		r := int(rank.Int64)
		st.GlobalRank = &r
	}
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.UserStats{}, err
	}
	return st, nil
}

// UpsertUserStats writes the stats rollup for a user. The global rank is
// left untouched; see RefreshGlobalRanks.
func (s *Store) UpsertUserStats(ctx context.Context, st model.UserStats) error {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	_, err := s.exec(ctx,
		`INSERT INTO user_stats (user_id, total_tests, average_wpm, average_accuracy, best_wpm, best_accuracy, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			total_tests = excluded.total_tests,
			average_wpm = excluded.average_wpm,
			average_accuracy = excluded.average_accuracy,
			best_wpm = excluded.best_wpm,
			best_accuracy = excluded.best_accuracy,
			updated_at = excluded.updated_at`,
		st.UserID, st.TotalTests, st.AverageWPM, st.AverageAccuracy, st.BestWPM, st.BestAccuracy, formatTime(st.UpdatedAt),
	)
	return err
}

// RefreshGlobalRanks ranks every user with at least one test by average WPM.
// Ties share a rank.
func (s *Store) RefreshGlobalRanks(ctx context.Context) error {
	_, err := s.exec(ctx,
		`UPDATE user_stats SET global_rank = (
			SELECT COUNT(*) + 1 FROM user_stats other
			WHERE other.total_tests > 0 AND other.average_wpm > user_stats.average_wpm
		 ) WHERE total_tests > 0`)
	return err
}

// Leaderboard returns users ordered by average WPM, best first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx,
		`SELECT us.user_id, us.total_tests, us.average_wpm, us.average_accuracy, us.best_wpm, us.best_accuracy,
			us.global_rank, us.updated_at, u.username, COALESCE(u.profile_image_url, '')
		 FROM user_stats us
		 JOIN users u ON u.id = us.user_id
		 WHERE us.total_tests > 0
		 ORDER BY us.average_wpm DESC, us.user_id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var rank sql.NullInt64
		var updatedAt string
		if err := rows.Scan(&e.UserID, &e.TotalTests, &e.AverageWPM, &e.AverageAccuracy, &e.BestWPM, &e.BestAccuracy,
			&rank, &updatedAt, &e.User.Username, &e.User.ProfileImageURL); err != nil {
			return nil, err
		}
		if rank.Valid {
			r := int(rank.Int64)
			e.GlobalRank = &r
		}
		parsed, err := parseTime(updatedAt)
		if err != nil {
			return nil, err
		}
		e.UpdatedAt = parsed
		e.User.ID = e.UserID
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
