package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/snippetfile"
	"github.com/verte-zerg/codetype/internal/store"
)

var (
	snippetsLang       string
	snippetsDifficulty string
)

func newSnippetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippets",
		Short: "List or import code snippets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snippets",
		Args:  cobra.NoArgs,
		RunE:  runSnippetsListCmd,
	}
	list.Flags().StringVar(&snippetsLang, "lang", "", "language filter")
	list.Flags().StringVar(&snippetsDifficulty, "difficulty", "", "difficulty filter")

	imp := &cobra.Command{
		Use:   "import <file-or-dir>...",
		Short: "Import code files as snippets",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSnippetsImportCmd,
	}
	imp.Flags().StringVar(&snippetsLang, "lang", "", "language for all files (default: from extension)")
	imp.Flags().StringVar(&snippetsDifficulty, "difficulty", model.DifficultyIntermediate, "difficulty of imported snippets")

	cmd.AddCommand(list, imp)
	return cmd
}

func runSnippetsListCmd(cmd *cobra.Command, _ []string) error {
	if !model.ValidDifficulty(snippetsDifficulty) {
		return fmt.Errorf("--difficulty must be beginner, intermediate or advanced")
	}
	ctx := cmd.Context()
	st, err := openLocalStore(ctx, localUsername(nil))
	if err != nil {
		return err
	}
	defer closeStore(st)

	languageID := ""
	names := map[string]string{}
	if snippetsLang != "" {
		lang, err := st.GetLanguageByName(ctx, snippetsLang)
		if err != nil {
			return fmt.Errorf("failed to load language %q: %w", snippetsLang, err)
		}
		languageID = lang.ID
	}
	langs, err := st.ListLanguages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list languages: %w", err)
	}
	for _, l := range langs {
		names[l.ID] = l.Name
	}

	snippets, err := st.ListSnippets(ctx, languageID, snippetsDifficulty)
	if err != nil {
		return fmt.Errorf("failed to list snippets: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, sn := range snippets {
		if _, err := fmt.Fprintf(out, "%-36s  %-12s %-12s %s\n", sn.ID, names[sn.LanguageID], sn.Difficulty, sn.Title); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runSnippetsImportCmd(cmd *cobra.Command, args []string) error {
	if snippetsDifficulty == "" || !model.ValidDifficulty(snippetsDifficulty) {
		return fmt.Errorf("--difficulty must be beginner, intermediate or advanced")
	}
	var files []snippetfile.File
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			loaded, err := snippetfile.LoadDir(path)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			files = append(files, loaded...)
			continue
		}
		f, err := snippetfile.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		files = append(files, f)
	}

	ctx := cmd.Context()
	st, err := openLocalStore(ctx, localUsername(nil))
	if err != nil {
		return err
	}
	defer closeStore(st)

	langs := map[string]model.Language{}
	imported := 0
	for _, f := range files {
		name := snippetsLang
		if name == "" {
			name = f.Lang
		}
		if name == "" {
			logErrf("Skipping %s (unknown language; use --lang)\n", f.Path)
			continue
		}
		lang, ok := langs[name]
		if !ok {
			lang, err = st.GetLanguageByName(ctx, name)
			if errors.Is(err, store.ErrNotFound) {
				lang, err = st.CreateLanguage(ctx, model.Language{Name: name, DisplayName: name})
			}
			if err != nil {
				return fmt.Errorf("failed to resolve language %q: %w", name, err)
			}
			langs[name] = lang
		}
		if _, err := st.CreateSnippet(ctx, model.Snippet{
			LanguageID: lang.ID,
			Title:      f.Title,
			Code:       f.Code,
			Difficulty: snippetsDifficulty,
		}); err != nil {
			return fmt.Errorf("failed to import %s: %w", f.Path, err)
		}
		imported++
	}
	logErrf("Imported %d snippet(s)\n", imported)
	return nil
}
