// Package seed loads the built-in languages, snippets and achievements.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/codetype/internal/model"
)

//go:embed defaults.toml
var defaultsTOML string

// Defaults is the decoded built-in data.
type Defaults struct {
	Languages    []LanguageDefaults    `toml:"languages"`
	Achievements []AchievementDefaults `toml:"achievements"`
}

// LanguageDefaults describes a language and its starter snippets.
type LanguageDefaults struct {
	Name        string            `toml:"name"`
	DisplayName string            `toml:"display-name"`
	Icon        string            `toml:"icon"`
	Snippets    []SnippetDefaults `toml:"snippets"`
}

// SnippetDefaults describes one starter snippet.
type SnippetDefaults struct {
	Title      string `toml:"title"`
	Difficulty string `toml:"difficulty"`
	Code       string `toml:"code"`
}

// AchievementDefaults describes one built-in achievement.
type AchievementDefaults struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Icon        string `toml:"icon"`
	Criteria    string `toml:"criteria"`
}

// Store is the persistence the seeder writes to.
type Store interface {
	ListLanguages(ctx context.Context) ([]model.Language, error)
	CreateLanguage(ctx context.Context, l model.Language) (model.Language, error)
	ListSnippets(ctx context.Context, languageID, difficulty string) ([]model.Snippet, error)
	CreateSnippet(ctx context.Context, sn model.Snippet) (model.Snippet, error)
	ListAchievements(ctx context.Context) ([]model.Achievement, error)
	CreateAchievement(ctx context.Context, a model.Achievement) (model.Achievement, error)
}

// LoadDefaults decodes the embedded data.
func LoadDefaults() (Defaults, error) {
	var d Defaults
	if _, err := toml.Decode(defaultsTOML, &d); err != nil {
		return Defaults{}, fmt.Errorf("failed to decode defaults: %w", err)
	}
	return d, nil
}

// Seed creates the default languages when there are none, fills languages
// without snippets from the defaults, and creates the default achievements
// when there are none. It returns the number of snippets inserted.
func Seed(ctx context.Context, st Store) (int, error) {
	defaults, err := LoadDefaults()
	if err != nil {
		return 0, err
	}

	languages, err := st.ListLanguages(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list languages: %w", err)
	}
	if len(languages) == 0 {
		for _, l := range defaults.Languages {
			created, err := st.CreateLanguage(ctx, model.Language{Name: l.Name, DisplayName: l.DisplayName, Icon: l.Icon})
			if err != nil {
				return 0, fmt.Errorf("failed to create language %s: %w", l.Name, err)
			}
			languages = append(languages, created)
		}
	}

	byName := map[string]LanguageDefaults{}
	for _, l := range defaults.Languages {
		byName[l.Name] = l
	}

	inserted := 0
	for _, lang := range languages {
		def, ok := byName[lang.Name]
		if !ok {
			continue
		}
		existing, err := st.ListSnippets(ctx, lang.ID, "")
		if err != nil {
			return inserted, fmt.Errorf("failed to list snippets: %w", err)
		}
		if len(existing) > 0 {
			continue
		}
		for _, sn := range def.Snippets {
			if _, err := st.CreateSnippet(ctx, model.Snippet{
				LanguageID: lang.ID,
				Title:      sn.Title,
				Code:       sn.Code,
				Difficulty: sn.Difficulty,
			}); err != nil {
				return inserted, fmt.Errorf("failed to create snippet %q: %w", sn.Title, err)
			}
			inserted++
		}
	}

	achievements, err := st.ListAchievements(ctx)
	if err != nil {
		return inserted, fmt.Errorf("failed to list achievements: %w", err)
	}
	if len(achievements) == 0 {
		for _, a := range defaults.Achievements {
			if _, err := st.CreateAchievement(ctx, model.Achievement{
				Name:        a.Name,
				Description: a.Description,
				Icon:        a.Icon,
				Criteria:    a.Criteria,
			}); err != nil {
				return inserted, fmt.Errorf("failed to create achievement %q: %w", a.Name, err)
			}
		}
	}
	return inserted, nil
}
