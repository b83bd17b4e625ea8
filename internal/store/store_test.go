package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/codetype/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "codetype.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "codetype.db")
	for i := 0; i < 2; i++ {
		st, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := st.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
}

func TestSnippetsAndLanguages(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	py, err := st.CreateLanguage(ctx, model.Language{Name: "python", DisplayName: "Python", Icon: "🐍"})
	if err != nil {
		t.Fatalf("create language: %v", err)
	}
	if _, err := st.CreateSnippet(ctx, model.Snippet{LanguageID: py.ID, Title: "B", Code: "print(1)", Difficulty: model.DifficultyAdvanced}); err != nil {
		t.Fatalf("create snippet: %v", err)
	}
	a, err := st.CreateSnippet(ctx, model.Snippet{LanguageID: py.ID, Title: "A", Code: "x = 1\ny = 2"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}

	got, err := st.GetLanguageByName(ctx, "python")
	if err != nil {
		t.Fatalf("get language: %v", err)
	}
	if got.SnippetCount != 2 {
		t.Fatalf("expected snippet count 2, got %d", got.SnippetCount)
	}

	all, err := st.ListSnippets(ctx, py.ID, "")
	if err != nil {
		t.Fatalf("list snippets: %v", err)
	}
	if len(all) != 2 || all[0].Title != "A" {
		t.Fatalf("unexpected snippets: %+v", all)
	}
	adv, err := st.ListSnippets(ctx, py.ID, model.DifficultyAdvanced)
	if err != nil {
		t.Fatalf("list snippets: %v", err)
	}
	if len(adv) != 1 || adv[0].Title != "B" {
		t.Fatalf("unexpected filtered snippets: %+v", adv)
	}

	fetched, err := st.GetSnippet(ctx, a.ID)
	if err != nil {
		t.Fatalf("get snippet: %v", err)
	}
	if fetched.Code != "x = 1\ny = 2" || fetched.Difficulty != model.DifficultyBeginner {
		t.Fatalf("unexpected snippet: %+v", fetched)
	}

	if _, err := st.GetSnippet(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.CreateSnippet(ctx, model.Snippet{LanguageID: "missing", Title: "x", Code: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown language, got %v", err)
	}
}

func TestResultsAndWeakChars(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	lang, err := st.CreateLanguage(ctx, model.Language{Name: "go", DisplayName: "Go", Icon: "g"})
	if err != nil {
		t.Fatalf("create language: %v", err)
	}
	sn, err := st.CreateSnippet(ctx, model.Snippet{LanguageID: lang.ID, Title: "main", Code: "func main() {}"})
	if err != nil {
		t.Fatalf("create snippet: %v", err)
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		r, err := st.InsertResult(ctx, model.TestResult{
			UserID:      "u1",
			SnippetID:   sn.ID,
			WPM:         float64(40 + i),
			Accuracy:    95,
			TimeSpent:   30,
			Errors:      1,
			CompletedAt: base.Add(time.Duration(i) * time.Minute),
		}, []model.CharStats{
			{Char: "f", Correct: 1},
			{Char: "{", Correct: 0, Incorrect: 1},
		})
		if err != nil {
			t.Fatalf("insert result: %v", err)
		}
		ids = append(ids, r.ID)
	}

	recent, err := st.ListUserResults(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("list user results: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != ids[2] || recent[1].ID != ids[1] {
		t.Fatalf("unexpected recent results: %+v", recent)
	}

	aggs, err := st.ListResults(ctx, model.StatsConfig{UserID: "u1", Lang: "go"})
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(aggs) != 3 || aggs[0].ResultID != ids[0] || aggs[0].LanguageID != lang.ID {
		t.Fatalf("unexpected aggregates: %+v", aggs)
	}
	none, err := st.ListResults(ctx, model.StatsConfig{UserID: "u1", Lang: "rust"})
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no results for other language, got %d", len(none))
	}

	weak, err := st.GetWeakChars(ctx, "u1", lang.ID, 2)
	if err != nil {
		t.Fatalf("weak chars: %v", err)
	}
	byChar := map[string]model.CharAggregate{}
	for _, w := range weak {
		byChar[w.Char] = w
	}
	if byChar["{"].Incorrect != 2 || byChar["f"].Correct != 2 {
		t.Fatalf("unexpected weak chars: %+v", weak)
	}

	perResult, err := st.ListCharStatsForResults(ctx, ids, []string{"{"})
	if err != nil {
		t.Fatalf("char stats: %v", err)
	}
	if len(perResult) != 3 || perResult[ids[0]]["{"].Incorrect != 1 {
		t.Fatalf("unexpected per-result stats: %+v", perResult)
	}
}

func TestUserStatsAndLeaderboard(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, u := range []model.User{{ID: "a", Username: "alice"}, {ID: "b", Username: "bob"}, {ID: "c", Username: "carol"}} {
		if _, err := st.UpsertUser(ctx, u); err != nil {
			t.Fatalf("upsert user: %v", err)
		}
	}
	stats := []model.UserStats{
		{UserID: "a", TotalTests: 2, AverageWPM: 40},
		{UserID: "b", TotalTests: 1, AverageWPM: 70},
		{UserID: "c", TotalTests: 0},
	}
	for _, s := range stats {
		if err := st.UpsertUserStats(ctx, s); err != nil {
			t.Fatalf("upsert stats: %v", err)
		}
	}
	if err := st.RefreshGlobalRanks(ctx); err != nil {
		t.Fatalf("refresh ranks: %v", err)
	}

	board, err := st.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].User.Username != "bob" || *board[0].GlobalRank != 1 || *board[1].GlobalRank != 2 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	c, err := st.GetUserStats(ctx, "c")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if c.GlobalRank != nil {
		t.Fatalf("expected no rank without tests, got %d", *c.GlobalRank)
	}
	if _, err := st.GetUserStats(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAchievementsAndProficiency(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	a, err := st.CreateAchievement(ctx, model.Achievement{Name: "First Steps", Description: "d", Icon: "*", Criteria: `{"metric":"totalTests","min":1}`})
	if err != nil {
		t.Fatalf("create achievement: %v", err)
	}
	now := time.Now()
	added, err := st.AwardAchievement(ctx, "u1", a.ID, now)
	if err != nil || !added {
		t.Fatalf("award: added=%v err=%v", added, err)
	}
	added, err = st.AwardAchievement(ctx, "u1", a.ID, now)
	if err != nil || added {
		t.Fatalf("second award: added=%v err=%v", added, err)
	}
	earned, err := st.ListUserAchievements(ctx, "u1")
	if err != nil {
		t.Fatalf("list user achievements: %v", err)
	}
	if len(earned) != 1 || earned[0].Achievement.Name != "First Steps" {
		t.Fatalf("unexpected achievements: %+v", earned)
	}

	p := model.LanguageProficiency{UserID: "u1", LanguageID: "l1", AverageWPM: 30, TestsCompleted: 1, ProficiencyLevel: model.LevelBeginner}
	if err := st.UpsertProficiency(ctx, p); err != nil {
		t.Fatalf("upsert proficiency: %v", err)
	}
	p.AverageWPM = 55
	p.TestsCompleted = 2
	p.ProficiencyLevel = model.LevelIntermediate
	if err := st.UpsertProficiency(ctx, p); err != nil {
		t.Fatalf("upsert proficiency: %v", err)
	}
	profs, err := st.ListProficiency(ctx, "u1")
	if err != nil {
		t.Fatalf("list proficiency: %v", err)
	}
	if len(profs) != 1 || profs[0].TestsCompleted != 2 || profs[0].ProficiencyLevel != model.LevelIntermediate {
		t.Fatalf("unexpected proficiency: %+v", profs)
	}
}
