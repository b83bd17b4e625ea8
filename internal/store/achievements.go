package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/codetype/internal/model"
)

// ListAchievements returns all achievements ordered by name.
func (s *Store) ListAchievements(ctx context.Context) ([]model.Achievement, error) {
	rows, err := s.query(ctx, `SELECT id, name, description, icon, criteria FROM achievements ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.Achievement
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.Criteria); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateAchievement inserts an achievement.
func (s *Store) CreateAchievement(ctx context.Context, a model.Achievement) (model.Achievement, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, err := s.exec(ctx,
		`INSERT INTO achievements (id, name, description, icon, criteria) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Description, a.Icon, a.Criteria,
	); err != nil {
		return model.Achievement{}, err
	}
	return a, nil
}

// ListUserAchievements returns the achievements a user earned, newest first.
func (s *Store) ListUserAchievements(ctx context.Context, userID string) ([]model.UserAchievement, error) {
	rows, err := s.query(ctx,
		`SELECT ua.id, ua.user_id, ua.achievement_id, ua.earned_at, a.id, a.name, a.description, a.icon, a.criteria
		 FROM user_achievements ua
		 JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = ?
		 ORDER BY ua.earned_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.UserAchievement
	for rows.Next() {
		var ua model.UserAchievement
		var earnedAt string
		a := &ua.Achievement
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &earnedAt, &a.ID, &a.Name, &a.Description, &a.Icon, &a.Criteria); err != nil {
			return nil, err
		}
		parsed, err := parseTime(earnedAt)
		if err != nil {
			return nil, err
		}
		ua.EarnedAt = parsed
		result = append(result, ua)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// AwardAchievement records that a user earned an achievement. It reports
// false when the user already had it.
func (s *Store) AwardAchievement(ctx context.Context, userID, achievementID string, earnedAt time.Time) (bool, error) {
	res, err := s.exec(ctx,
		`INSERT INTO user_achievements (id, user_id, achievement_id, earned_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		uuid.NewString(), userID, achievementID, formatTime(earnedAt),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListProficiency returns a user's per-language proficiency.
func (s *Store) ListProficiency(ctx context.Context, userID string) ([]model.LanguageProficiency, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, language_id, average_wpm, average_accuracy, tests_completed, proficiency_level, updated_at
		 FROM language_proficiency
		 WHERE user_id = ?
		 ORDER BY average_wpm DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.LanguageProficiency
	for rows.Next() {
		var p model.LanguageProficiency
		var updatedAt string
		if err := rows.Scan(&p.ID, &p.UserID, &p.LanguageID, &p.AverageWPM, &p.AverageAccuracy, &p.TestsCompleted, &p.ProficiencyLevel, &updatedAt); err != nil {
			return nil, err
		}
		parsed, err := parseTime(updatedAt)
		if err != nil {
			return nil, err
		}
		p.UpdatedAt = parsed
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertProficiency writes a user's proficiency for one language.
func (s *Store) UpsertProficiency(ctx context.Context, p model.LanguageProficiency) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := s.exec(ctx,
		`INSERT INTO language_proficiency (id, user_id, language_id, average_wpm, average_accuracy, tests_completed, proficiency_level, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, language_id) DO UPDATE SET
			average_wpm = excluded.average_wpm,
			average_accuracy = excluded.average_accuracy,
			tests_completed = excluded.tests_completed,
			proficiency_level = excluded.proficiency_level,
			updated_at = excluded.updated_at`,
		p.ID, p.UserID, p.LanguageID, p.AverageWPM, p.AverageAccuracy, p.TestsCompleted, p.ProficiencyLevel, formatTime(p.UpdatedAt),
	)
	return err
}
