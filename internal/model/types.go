// Package model defines shared data structures.
package model

import "time"

// Difficulty levels for snippets.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Proficiency levels derived from average WPM.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// ValidDifficulty reports whether d is a known difficulty or empty.
func ValidDifficulty(d string) bool {
	switch d {
	case "", DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Config defines practice settings.
type Config struct {
	Lang       string
	Difficulty string
	Duration   time.Duration
	FocusWeak  bool
	WeakTop    int
	WeakFactor float64
	WeakWindow int
	UserID     string
	Username   string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	UserID      string
	Lang        string
	Since       *time.Time
	Last        int
	CurveWindow int
	Chars       string
}

// User is a player account.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email,omitempty"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	Username        string    `json:"username"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Language groups snippets.
type Language struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Icon         string `json:"icon"`
	SnippetCount int    `json:"snippetCount"`
}

// Snippet is a reference text to type.
type Snippet struct {
	ID         string    `json:"id"`
	LanguageID string    `json:"languageId"`
	Title      string    `json:"title"`
	Code       string    `json:"code"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TestResult is a stored completed attempt.
type TestResult struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	SnippetID   string    `json:"snippetId"`
	WPM         float64   `json:"wpm"`
	Accuracy    float64   `json:"accuracy"`
	TimeSpent   int       `json:"timeSpent"`
	Errors      int       `json:"errors"`
	CompletedAt time.Time `json:"completedAt"`
}

// CharStats stores per-character stats for a result.
type CharStats struct {
	Char      string
	Correct   int
	Incorrect int
}

// CharAggregate aggregates character stats across results.
type CharAggregate struct {
	Char      string
	Correct   int
	Incorrect int
}

// ResultAggregate summarizes a result for reporting.
type ResultAggregate struct {
	ResultID    string
	CompletedAt time.Time
	LanguageID  string
	WPM         float64
	Accuracy    float64
	TimeSpent   int
	Errors      int
}

// UserStats is the rollup over a user's results.
type UserStats struct {
	UserID          string    `json:"userId"`
	TotalTests      int       `json:"totalTests"`
	AverageWPM      float64   `json:"averageWpm"`
	AverageAccuracy float64   `json:"averageAccuracy"`
	BestWPM         float64   `json:"bestWpm"`
	BestAccuracy    float64   `json:"bestAccuracy"`
	GlobalRank      *int      `json:"globalRank"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LeaderboardEntry pairs stats with their owner.
type LeaderboardEntry struct {
	UserStats
	User User `json:"user"`
}

// Achievement is an award with a JSON criteria document.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Criteria    string `json:"criteria"`
}

// UserAchievement records when a user earned an achievement.
type UserAchievement struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	AchievementID string      `json:"achievementId"`
	EarnedAt      time.Time   `json:"earnedAt"`
	Achievement   Achievement `json:"achievement"`
}

// LanguageProficiency is the per-language rollup for a user.
type LanguageProficiency struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	LanguageID       string    `json:"languageId"`
	AverageWPM       float64   `json:"averageWpm"`
	AverageAccuracy  float64   `json:"averageAccuracy"`
	TestsCompleted   int       `json:"testsCompleted"`
	ProficiencyLevel string    `json:"proficiencyLevel"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
