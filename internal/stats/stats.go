// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/verte-zerg/codetype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary rolls up a set of results.
type Summary struct {
	Tests           int
	AverageWPM      float64
	BestWPM         float64
	AverageAccuracy float64
	BestAccuracy    float64
	TotalTime       int
	TotalErrors     int
}

// Summarize computes averages and bests over results.
func Summarize(results []model.ResultAggregate) Summary {
	if len(results) == 0 {
		return Summary{}
	}
	count := float64(len(results))
	return Summary{
		Tests:           len(results),
		AverageWPM:      lo.SumBy(results, func(r model.ResultAggregate) float64 { return r.WPM }) / count,
		BestWPM:         lo.MaxBy(results, func(a, b model.ResultAggregate) bool { return a.WPM > b.WPM }).WPM,
		AverageAccuracy: lo.SumBy(results, func(r model.ResultAggregate) float64 { return r.Accuracy }) / count,
		BestAccuracy:    lo.MaxBy(results, func(a, b model.ResultAggregate) bool { return a.Accuracy > b.Accuracy }).Accuracy,
		TotalTime:       lo.SumBy(results, func(r model.ResultAggregate) int { return r.TimeSpent }),
		TotalErrors:     lo.SumBy(results, func(r model.ResultAggregate) int { return r.Errors }),
	}
}

// ProficiencyLevel maps an average WPM to a level.
func ProficiencyLevel(avgWPM float64) string {
	switch {
	case avgWPM >= 80:
		return model.LevelAdvanced
	case avgWPM >= 50:
		return model.LevelIntermediate
	default:
		return model.LevelBeginner
	}
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := lo.Min(values)
	maxVal := lo.Max(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Resample shrinks values to at most width points by averaging buckets.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		out[i] = lo.Sum(values[start:end]) / float64(end-start)
	}
	return out
}

// RenderSummary prints a summary for results.
func RenderSummary(w io.Writer, results []model.ResultAggregate) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	s := Summarize(results)
	lines := []string{
		"Summary",
		fmt.Sprintf("Tests: %d", s.Tests),
		fmt.Sprintf("Avg WPM: %.2f", s.AverageWPM),
		fmt.Sprintf("Best WPM: %.2f", s.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", s.AverageAccuracy),
		fmt.Sprintf("Best Accuracy: %.2f%%", s.BestAccuracy),
		fmt.Sprintf("Time Typing: %s", FormatSeconds(s.TotalTime)),
		fmt.Sprintf("Errors: %d", s.TotalErrors),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatSeconds renders seconds as m:ss, or h:mm:ss past an hour.
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// RenderCurves prints WPM and accuracy sparklines smoothed over window.
func RenderCurves(w io.Writer, results []model.ResultAggregate, window, width int) error {
	if len(results) == 0 {
		return nil
	}
	wpms := lo.Map(results, func(r model.ResultAggregate, _ int) float64 { return r.WPM })
	accs := lo.Map(results, func(r model.ResultAggregate, _ int) float64 { return r.Accuracy })
	if _, err := fmt.Fprintln(w, "Learning Curves"); err != nil {
		return err
	}
	if err := renderCurve(w, "WPM", MovingAverage(wpms, window), width); err != nil {
		return err
	}
	if err := renderCurve(w, "Accuracy", MovingAverage(accs, window), width); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderCurve(w io.Writer, name string, values []float64, width int) error {
	const labelWidth = 10
	const rangeWidth = 16
	lineWidth := 0
	if width > 0 {
		lineWidth = max(1, width-labelWidth-rangeWidth)
	}
	values = Resample(values, lineWidth)
	_, err := fmt.Fprintf(w, "%-*s%s  %.1f..%.1f\n", labelWidth, name, Sparkline(values), lo.Min(values), lo.Max(values))
	return err
}

// RenderCharTable prints per-character aggregates.
func RenderCharTable(w io.Writer, aggs []model.CharAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	rows := CharRows(aggs)

	if _, err := fmt.Fprintln(w, "Per-Character (Windowed)"); err != nil {
		return err
	}
	lines := formatTable(CharHeaders(), rows, map[int]bool{1: true, 2: true, 3: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// CharHeaders returns the column headers used by CharRows.
func CharHeaders() []string {
	return []string{"Char", "Accuracy", "Correct", "Incorrect"}
}

// CharRows formats aggregates sorted by lowest accuracy first.
func CharRows(aggs []model.CharAggregate) [][]string {
	sorted := make([]model.CharAggregate, len(aggs))
	copy(sorted, aggs)
	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := accuracy(sorted[i]), accuracy(sorted[j])
		if ai == aj {
			return sorted[i].Char < sorted[j].Char
		}
		return ai < aj
	})
	return lo.Map(sorted, func(agg model.CharAggregate, _ int) []string {
		return []string{
			CharLabel(agg.Char),
			fmt.Sprintf("%.2f%%", accuracy(agg)*100),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		}
	})
}

// CharLabel makes whitespace characters visible.
func CharLabel(ch string) string {
	switch ch {
	case " ":
		return "<space>"
	case "\n":
		return "<newline>"
	case "\t":
		return "<tab>"
	}
	return ch
}

// RenderCharCurves prints per-character accuracy sparklines.
func RenderCharCurves(w io.Writer, results []model.ResultAggregate, perResult map[string]map[string]model.CharAggregate, chars []string, window, width int) error {
	if len(chars) == 0 || len(results) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Character Curves"); err != nil {
		return err
	}
	for _, ch := range chars {
		accSeries := make([]float64, len(results))
		for i, r := range results {
			if agg, ok := perResult[r.ResultID][ch]; ok {
				accSeries[i] = accuracy(agg) * 100
			}
		}
		if err := renderCurve(w, CharLabel(ch), MovingAverage(accSeries, window), width); err != nil {
			return err
		}
	}
	return nil
}

// RenderLeaderboard prints leaderboard entries.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No ranked players yet.")
		return err
	}
	headers := []string{"Rank", "Player", "Avg WPM", "Best WPM", "Accuracy", "Tests"}
	rows := lo.Map(entries, func(e model.LeaderboardEntry, i int) []string {
		rank := i + 1
		if e.GlobalRank != nil {
			rank = *e.GlobalRank
		}
		return []string{
			fmt.Sprintf("%d", rank),
			e.User.Username,
			fmt.Sprintf("%.1f", e.AverageWPM),
			fmt.Sprintf("%.1f", e.BestWPM),
			fmt.Sprintf("%.1f%%", e.AverageAccuracy),
			fmt.Sprintf("%d", e.TotalTests),
		}
	})
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
