// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/verte-zerg/codetype/internal/generator"
	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/scoring"
	"github.com/verte-zerg/codetype/internal/service"
	"github.com/verte-zerg/codetype/internal/session"
	statsPkg "github.com/verte-zerg/codetype/internal/stats"
)

const tickInterval = time.Second

// Store is the persistence the typing screen reads from.
type Store interface {
	GetLanguageByName(ctx context.Context, name string) (model.Language, error)
	ListSnippets(ctx context.Context, languageID, difficulty string) ([]model.Snippet, error)
	ListResults(ctx context.Context, cfg model.StatsConfig) ([]model.ResultAggregate, error)
	GetWeakChars(ctx context.Context, userID, languageID string, window int) ([]model.CharAggregate, error)
}

// Deps are the collaborators of the typing screen.
type Deps struct {
	Store   Store
	Results *service.Results
	Gen     *generator.Generator
	Log     *zap.Logger
	Clock   session.Clock
}

type tickMsg struct {
	gen int
}

// tickHandle is the session timer. Stopping it invalidates ticks in flight.
type tickHandle struct {
	m   *Model
	gen int
}

func (h tickHandle) Stop() {
	if h.m.tickGen == h.gen {
		h.m.tickGen++
	}
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	config  model.Config
	store   Store
	results *service.Results
	gen     *generator.Generator
	log     *zap.Logger
	clock   session.Clock

	lang     model.Language
	snippets []model.Snippet
	weakSet  map[rune]struct{}

	ctrl        *session.Controller
	inputRunes  []rune
	tickGen     int
	pendingTick tea.Cmd
	recorded    *service.Recorded
	final       *session.Result

	width  int
	height int

	lastWPM float64
	lastAcc float64
	hasLast bool
	history []model.ResultAggregate
	allWPM  float64
	allAcc  float64
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6E6E6E")).Padding(1, 3)
)

// NewModel constructs a typing TUI model for cfg.Lang.
func NewModel(cfg model.Config, deps Deps) (*Model, error) {
	if deps.Gen == nil {
		deps.Gen = generator.New()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = session.SystemClock{}
	}
	m := &Model{
		config:  cfg,
		store:   deps.Store,
		results: deps.Results,
		gen:     deps.Gen,
		log:     deps.Log,
		clock:   deps.Clock,
		weakSet: map[rune]struct{}{},
	}

	ctx := context.Background()
	lang, err := m.store.GetLanguageByName(ctx, cfg.Lang)
	if err != nil {
		return nil, fmt.Errorf("failed to load language %q: %w", cfg.Lang, err)
	}
	m.lang = lang
	snippets, err := m.store.ListSnippets(ctx, lang.ID, cfg.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to load snippets: %w", err)
	}
	if len(snippets) == 0 {
		return nil, errors.New("no snippets for " + cfg.Lang + difficultySuffix(cfg.Difficulty))
	}
	m.snippets = snippets
	if cfg.FocusWeak {
		m.refreshWeakSet()
	}

	m.ctrl = session.New(m.pickNext(""), m.sessionOptions()...)
	m.loadFooterStats()
	return m, nil
}

func difficultySuffix(d string) string {
	if d == "" {
		return ""
	}
	return " (" + d + ")"
}

func (m *Model) sessionOptions() []session.Option {
	opts := []session.Option{
		session.WithClock(m.clock),
		session.WithTimer(m.startTimer),
	}
	if m.config.Duration > 0 {
		opts = append(opts, session.WithDuration(m.config.Duration))
	}
	return append(opts, session.WithSink(m.sink()))
}

// sink keeps the final result for the results panel and forwards it to the
// result service, if any.
func (m *Model) sink() session.ResultSink {
	var next session.ResultSink
	if m.results != nil {
		next = m.results.Sink(context.Background(), m.config.UserID, m.log, m.onRecorded)
	}
	return session.SinkFunc(func(r session.Result) {
		m.final = &r
		m.lastWPM = float64(r.WPM)
		m.lastAcc = r.Accuracy
		m.hasLast = true
		if next != nil {
			next.Submit(r)
		}
	})
}

func (m *Model) startTimer() session.Timer {
	m.tickGen++
	gen := m.tickGen
	m.pendingTick = tickCmd(gen)
	return tickHandle{m: m, gen: gen}
}

func tickCmd(gen int) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m *Model) onRecorded(rec service.Recorded) {
	m.recorded = &rec
	m.history = append(m.history, model.ResultAggregate{
		ResultID:    rec.Result.ID,
		CompletedAt: rec.Result.CompletedAt,
		LanguageID:  m.lang.ID,
		WPM:         rec.Result.WPM,
		Accuracy:    rec.Result.Accuracy,
		TimeSpent:   rec.Result.TimeSpent,
		Errors:      rec.Result.Errors,
	})
	m.recomputeAllTime()
	if m.config.FocusWeak {
		m.refreshWeakSet()
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if msg.gen != m.tickGen {
			return m, nil
		}
		m.ctrl.Tick()
		if m.ctrl.Phase() == session.Running {
			return m, tickCmd(msg.gen)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.ctrl.Close()
		return m, tea.Quit
	case tea.KeyCtrlR:
		m.restart()
		return m, nil
	case tea.KeyCtrlN:
		m.next()
		return m, nil
	}

	if m.ctrl.Phase() == session.Complete {
		if msg.Type == tea.KeyEnter {
			m.next()
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		if len(m.inputRunes) == 0 {
			return m, nil
		}
		m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
	case tea.KeySpace:
		m.inputRunes = append(m.inputRunes, ' ')
	case tea.KeyEnter:
		m.inputRunes = append(m.inputRunes, '\n')
	case tea.KeyTab:
		m.inputRunes = append(m.inputRunes, m.tabFill()...)
	case tea.KeyRunes:
		m.inputRunes = append(m.inputRunes, msg.Runes...)
	default:
		return m, nil
	}
	m.ctrl.Input(string(m.inputRunes))
	return m, m.takeTick()
}

func (m *Model) takeTick() tea.Cmd {
	cmd := m.pendingTick
	m.pendingTick = nil
	return cmd
}

// tabFill returns the run of spaces expected at the cursor, or a tab when the
// reference has none there.
func (m *Model) tabFill() []rune {
	ref := []rune(m.ctrl.View().Reference)
	pos := len(m.inputRunes)
	n := 0
	for pos+n < len(ref) && ref[pos+n] == ' ' {
		n++
	}
	if n == 0 {
		return []rune{'\t'}
	}
	return []rune(strings.Repeat(" ", n))
}

func (m *Model) restart() {
	m.inputRunes = nil
	m.recorded = nil
	m.final = nil
	m.ctrl.Restart()
}

func (m *Model) next() {
	current := m.ctrl.View().SnippetID
	m.inputRunes = nil
	m.recorded = nil
	m.final = nil
	m.ctrl.Reset(m.pickNext(current))
}

func (m *Model) pickNext(skipID string) session.Reference {
	sn, ok := m.gen.PickNext(m.snippets, skipID, m.weakSet, m.config.WeakFactor)
	if !ok {
		return session.Reference{}
	}
	return session.Reference{SnippetID: sn.ID, Content: sn.Code}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.ctrl.Phase() == session.Complete && m.final != nil {
		panel := m.renderResults()
		if m.width == 0 || m.height == 0 {
			return panel
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
	}

	v := m.ctrl.View()
	targetRunes := []rune(v.Reference)
	if len(targetRunes) == 0 {
		return ""
	}
	cursorIndex := -1
	if len(m.inputRunes) < len(targetRunes) {
		cursorIndex = len(m.inputRunes)
	}
	styledRunes := buildStyledRunes(targetRunes, m.inputRunes, cursorIndex)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styledRunes)
	}
	contentWidth := int(float64(m.width) * 0.80)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styledRunes, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) loadFooterStats() {
	if m.config.UserID == "" {
		return
	}
	results, err := m.store.ListResults(context.Background(), model.StatsConfig{UserID: m.config.UserID, Lang: m.config.Lang})
	if err != nil {
		m.log.Error("Failed to load result history", zap.Error(err))
		return
	}
	m.history = results
	if len(results) == 0 {
		return
	}
	last := results[len(results)-1]
	m.lastWPM = last.WPM
	m.lastAcc = last.Accuracy
	m.hasLast = true
	m.recomputeAllTime()
}

func (m *Model) recomputeAllTime() {
	summary := statsPkg.Summarize(m.history)
	m.allWPM = summary.AverageWPM
	m.allAcc = summary.AverageAccuracy
}

func (m *Model) renderFooter() string {
	v := m.ctrl.View()
	if v.Reference == "" {
		return ""
	}
	segments := []string{
		"Time " + statsPkg.FormatSeconds(int(v.TimeRemaining.Round(time.Second).Seconds())),
		fmt.Sprintf("%d WPM", v.RoundedWPM()),
		fmt.Sprintf("Acc %.1f%%", v.Accuracy),
		fmt.Sprintf("Err %d", v.Errors),
		fmt.Sprintf("Progress %d%%", int(v.Progress)),
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.lastWPM, m.lastAcc))
	}
	if len(m.history) > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", m.allWPM, m.allAcc))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) renderResults() string {
	r := m.final
	lines := []string{
		titleStyle.Render("Result"),
		"",
		fmt.Sprintf("WPM       %d", r.WPM),
		fmt.Sprintf("Accuracy  %.1f%%", r.Accuracy),
		fmt.Sprintf("Time      %s", statsPkg.FormatSeconds(r.TimeSpent)),
		fmt.Sprintf("Errors    %d", r.Errors),
	}
	if r.TimedOut {
		lines = append(lines, "", "Time is up.")
	}
	if m.recorded != nil && len(m.recorded.Earned) > 0 {
		names := lo.Map(m.recorded.Earned, func(a model.Achievement, _ int) string { return a.Name })
		lines = append(lines, "", "New achievements: "+strings.Join(names, ", "))
	}
	if missed := weakestChars(r.Chars, 3); missed != "" {
		lines = append(lines, "", "Most missed: "+missed)
	}
	lines = append(lines, "", footerStyle.Render("ctrl+r retry · enter/ctrl+n next · esc quit"))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func weakestChars(chars []scoring.CharCount, n int) string {
	aggs := lo.Map(chars, func(c scoring.CharCount, _ int) model.CharAggregate {
		return model.CharAggregate{Char: c.Char, Correct: c.Correct, Incorrect: c.Incorrect}
	})
	weak := statsPkg.SelectWeakChars(aggs, n)
	if len(weak) == 0 {
		return ""
	}
	labels := lo.Map(lo.Keys(weak), func(r rune, _ int) string { return statsPkg.CharLabel(string(r)) })
	sort.Strings(labels)
	return strings.Join(labels, " ")
}

func (m *Model) refreshWeakSet() {
	aggs, err := m.store.GetWeakChars(context.Background(), m.config.UserID, m.lang.ID, m.config.WeakWindow)
	if err != nil {
		m.log.Error("Failed to load weak chars", zap.Error(err))
		return
	}
	if len(aggs) == 0 {
		m.log.Info("No stats available for weak-char focus yet; picking uniformly")
		m.weakSet = map[rune]struct{}{}
		return
	}
	m.weakSet = statsPkg.SelectWeakChars(aggs, m.config.WeakTop)
}
