// Package main provides the CLI entrypoint for codetype.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/codetype/internal/config"
	"github.com/verte-zerg/codetype/internal/generator"
	"github.com/verte-zerg/codetype/internal/logging"
	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/seed"
	"github.com/verte-zerg/codetype/internal/service"
	"github.com/verte-zerg/codetype/internal/store"
	"github.com/verte-zerg/codetype/internal/tui"
)

const (
	defaultLang        = "python"
	defaultDuration    = 120
	defaultWeakTop     = 8
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultCurveWindow = 10
	localUserID        = "local"
)

var (
	practiceLang       string
	practiceDifficulty string
	practiceDuration   int
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakFactor float64
	practiceWeakWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "codetype",
		Short:         "Code typing practice",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceLang, "lang", defaultLang, "language of the snippets")
	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", "", "beginner, intermediate or advanced (default: any)")
	rootCmd.Flags().IntVar(&practiceDuration, "duration", defaultDuration, "time budget per snippet in seconds")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "prefer snippets with weak characters")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak characters to focus on")
	rootCmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak characters")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent results to compute weak chars")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newSnippetsCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "lang", &practiceLang, fileCfg.Practice.Lang)
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, fileCfg.Practice.Difficulty)
	applyIntConfig(cmd, "duration", &practiceDuration, fileCfg.Practice.Duration)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Practice.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Practice.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, fileCfg.Practice.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Practice.WeakWindow)

	cfg := model.Config{
		Lang:       practiceLang,
		Difficulty: practiceDifficulty,
		Duration:   time.Duration(practiceDuration) * time.Second,
		FocusWeak:  practiceFocusWeak,
		WeakTop:    practiceWeakTop,
		WeakFactor: practiceWeakFactor,
		WeakWindow: practiceWeakWindow,
		UserID:     localUserID,
		Username:   localUsername(fileCfg.Practice.Username),
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	// The alt screen owns the terminal, so the TUI logs to files only.
	logLevel := "info"
	if fileCfg.Practice.LogLevel != nil {
		logLevel = *fileCfg.Practice.LogLevel
	}
	log, err := logging.New(logging.Config{Level: logLevel, Dir: config.DefaultLogDir()})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	st, err := openLocalStore(cmd.Context(), cfg.Username)
	if err != nil {
		return err
	}
	defer closeStore(st)

	m, err := tui.NewModel(cfg, tui.Deps{
		Store:   st,
		Results: service.NewResults(st),
		Gen:     generator.New(),
		Log:     log,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w\nRun: codetype langs", err)
		}
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openLocalStore opens the local database, seeds it and makes sure the
// local user exists.
func openLocalStore(ctx context.Context, username string) (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if _, err := seed.Seed(ctx, st); err != nil {
		closeStore(st)
		return nil, fmt.Errorf("failed to seed db: %w", err)
	}
	if _, err := st.UpsertUser(ctx, model.User{ID: localUserID, Username: username}); err != nil {
		closeStore(st)
		return nil, fmt.Errorf("failed to save local user: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func localUsername(configured *string) string {
	if configured != nil && strings.TrimSpace(*configured) != "" {
		return strings.TrimSpace(*configured)
	}
	if u := strings.TrimSpace(os.Getenv("USER")); u != "" {
		return u
	}
	return localUserID
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# codetype configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# lang = %q           # Snippet language
# difficulty = ""           # beginner, intermediate or advanced
# duration = %d            # Time budget per snippet in seconds
# focus-weak = false        # Prefer snippets with weak characters
# weak-top = %d              # Number of weak characters to focus on
# weak-factor = %.1f        # Weight factor for weak characters
# weak-window = %d          # Number of recent results to compute weak chars
# username = ""             # Name shown on the leaderboard (default: $USER)
# log-level = "info"

[server]
# port = "5000"
# database-driver = "sqlite"        # sqlite or postgres
# database-url = %q
# session-secret = ""               # required; or CODETYPE_SERVER_SESSION_SECRET
# session-ttl = "30m"
# rate-limit-rps = 5
# rate-limit-burst = 10
# log-level = "info"
# production = false
`,
		defaultLang,
		defaultDuration,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		config.DefaultDBPath(),
	)
}

func validateConfig(cfg model.Config) error {
	if strings.TrimSpace(cfg.Lang) == "" {
		return fmt.Errorf("--lang must not be empty")
	}
	if !model.ValidDifficulty(cfg.Difficulty) {
		return fmt.Errorf("--difficulty must be beginner, intermediate or advanced")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
