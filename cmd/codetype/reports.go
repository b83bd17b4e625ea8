package main

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/codetype/internal/config"
	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/stats"
	"github.com/verte-zerg/codetype/internal/statsui"
	"github.com/verte-zerg/codetype/internal/store"
)

var (
	statsLang        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsChars       string
	statsPlain       bool

	leaderboardLimit int
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N results")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsChars, "char", "", "characters for per-char curves")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print text even on a terminal")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}

	cfg := model.StatsConfig{
		UserID:      localUserID,
		Lang:        statsLang,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Chars:       statsChars,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	fd := int(os.Stdout.Fd())
	if statsPlain || !term.IsTerminal(fd) {
		width := 80
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
		return renderPlainStats(cmd, st, cfg, width)
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainStats(cmd *cobra.Command, st *store.Store, cfg model.StatsConfig, width int) error {
	ctx := cmd.Context()
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(report.Results) == 0 {
		_, err := fmt.Fprintln(out, "No results found.")
		return err
	}
	if err := stats.RenderSummary(out, report.Results); err != nil {
		return err
	}
	if err := stats.RenderCurves(out, report.Results, cfg.CurveWindow, width); err != nil {
		return err
	}
	if err := stats.RenderCharTable(out, report.CharAggsWindow); err != nil {
		return err
	}

	chars := parseCharList(cfg.Chars)
	if len(chars) == 0 {
		chars = stats.TopCharsByFrequency(report.CharAggsAll, 5)
	}
	perResult, err := st.ListCharStatsForResults(ctx, resultIDs(report.Results), chars)
	if err != nil {
		return fmt.Errorf("failed to load character stats: %w", err)
	}
	return stats.RenderCharCurves(out, report.Results, perResult, chars, cfg.CurveWindow, width)
}

func resultIDs(results []model.ResultAggregate) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ResultID
	}
	return ids
}

func parseCharList(input string) []string {
	var out []string
	for _, r := range input {
		if r == ',' {
			continue
		}
		out = append(out, string(r))
	}
	return out
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().IntVar(&leaderboardLimit, "limit", 50, "number of players")
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	if leaderboardLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	entries, err := st.Leaderboard(cmd.Context(), leaderboardLimit)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return stats.RenderLeaderboard(cmd.OutOrStdout(), entries)
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List languages with snippets",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	st, err := openLocalStore(cmd.Context(), localUsername(nil))
	if err != nil {
		return err
	}
	defer closeStore(st)

	langs, err := st.ListLanguages(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list languages: %w", err)
	}
	return printLanguages(cmd.OutOrStdout(), langs)
}

func printLanguages(w io.Writer, langs []model.Language) error {
	if len(langs) == 0 {
		_, err := fmt.Fprintln(w, "No languages found.")
		return err
	}
	for _, l := range langs {
		if _, err := fmt.Fprintf(w, "%-12s %-14s %3d snippets\n", l.Name, l.DisplayName, l.SnippetCount); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
