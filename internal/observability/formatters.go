// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/algomentor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// writeList appends up to limit items under a heading.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// PrintProfiles outputs one box per platform with its headline numbers.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProfiles(profiles types.PlatformProfiles) {
	if !profiles.AnyConnected() {
		fmt.Fprintln(p.out, "No platforms connected.")
		return
	}

	if lc := profiles.LeetCode; lc.Connected {
		if lc.Data == nil {
			p.printBox("LEETCODE", "unavailable")
		} else {
			d := lc.Data
			var sb strings.Builder
			fmt.Fprintf(&sb, "User:     %s\n", d.Username)
			fmt.Fprintf(&sb, "Solved:   %d / %d\n", d.TotalSolved, d.TotalQuestions)
			fmt.Fprintf(&sb, "          easy %d  medium %d  hard %d\n", d.EasySolved, d.MediumSolved, d.HardSolved)
			fmt.Fprintf(&sb, "Ranking:  %d\n", d.Ranking)
			fmt.Fprintf(&sb, "Language: %s (%.1f%%)", d.MostUsedLanguage.Language, d.MostUsedLanguage.Percentage)
			if d.MostUsedTag != "" {
				fmt.Fprintf(&sb, "\nTop tag:  %s", d.MostUsedTag)
			}
			p.printBox("LEETCODE", sb.String())
		}
	}

	if cf := profiles.Codeforces; cf.Connected {
		if cf.Data == nil {
			p.printBox("CODEFORCES", "unavailable")
		} else {
			d := cf.Data
			var sb strings.Builder
			fmt.Fprintf(&sb, "Handle:   %s\n", d.Handle)
			fmt.Fprintf(&sb, "Rating:   %s (max %s)\n", intOrDash(d.Rating), intOrDash(d.MaxRating))
			fmt.Fprintf(&sb, "Rank:     %s (max %s)\n", d.Rank, d.MaxRank)
			fmt.Fprintf(&sb, "Solved:   %d\n", d.TotalSolved)
			fmt.Fprintf(&sb, "Contests: %d", len(d.RatingHistory))
			if d.MostUsedTag != "" {
				fmt.Fprintf(&sb, "\nTop tag:  %s", d.MostUsedTag)
			}
			p.printBox("CODEFORCES", sb.String())
		}
	}

	if cc := profiles.CodeChef; cc.Connected {
		if cc.Data == nil {
			p.printBox("CODECHEF", "unavailable")
		} else {
			d := cc.Data
			var sb strings.Builder
			fmt.Fprintf(&sb, "User:     %s\n", d.Username)
			fmt.Fprintf(&sb, "Rating:   %d (max %d) %s\n", d.Rating, d.MaxRating, d.Stars)
			fmt.Fprintf(&sb, "Rank:     global %d  country %d", d.GlobalRank, d.CountryRank)
			p.printBox("CODECHEF", sb.String())
		}
	}
}

// PrintTags outputs the tag distribution weakest first, using order to
// break ties the same way the recommender does.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTags(dist types.TagDistribution, order map[string]int) {
	if len(dist) == 0 {
		fmt.Fprintln(p.out, "No solved problems yet.")
		return
	}

	var sb strings.Builder
	total := dist.Total()
	fmt.Fprintf(&sb, "Total solved (tagged): %d\n\n", total)
	for _, tc := range dist.Ascending(order) {
		share := 100 * float64(tc.Count) / float64(total)
		fmt.Fprintf(&sb, "%-36s %5d %5.1f%%\n", clip(tc.Tag, 36), tc.Count, share)
	}
	p.printBox("TAG DISTRIBUTION (weakest first)", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecommendations outputs weak areas, the top problems and upcoming contests.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRecommendations(page types.RecommendationPage) {
	res := page.Recommendations
	if len(page.WeakAreas) > 0 {
		p.printBox("WEAK AREAS", strings.Join(page.WeakAreas, ", "))
	}

	if len(res.Problems) == 0 {
		fmt.Fprintln(p.out, "No problems matched.")
	} else {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d problems\n\n", res.TotalProblems)
		count := min(len(res.Problems), maxItemsToShow*2)
		for i, prob := range res.Problems[:count] {
			label := prob.Title
			if prob.IsDaily {
				label = "[daily] " + label
			}
			fmt.Fprintf(&sb, "#%d  %s\n", i+1, label)
			fmt.Fprintf(&sb, "    %s · %s · rating %s\n", prob.Platform, prob.Difficulty, intOrDash(prob.Rating))
			if len(prob.Tags) > 0 {
				fmt.Fprintf(&sb, "    [%s]\n", strings.Join(prob.Tags, ", "))
			}
			sb.WriteString("    " + prob.Link + "\n")
		}
		if len(res.Problems) > count {
			fmt.Fprintf(&sb, "\n... and %d more problems", len(res.Problems)-count)
		}
		p.printBox("RECOMMENDED PROBLEMS", strings.TrimSuffix(sb.String(), "\n"))
	}

	if len(res.Contests) > 0 {
		var sb strings.Builder
		count := min(len(res.Contests), maxItemsToShow)
		for _, c := range res.Contests[:count] {
			fmt.Fprintf(&sb, "%s (%s)\n", c.Title, c.Platform)
			fmt.Fprintf(&sb, "    %s UTC · %.1fh\n", c.Start, c.DurationHours)
		}
		if len(res.Contests) > count {
			fmt.Fprintf(&sb, "... and %d more contests\n", len(res.Contests)-count)
		}
		p.printBox("UPCOMING CONTESTS", strings.TrimSuffix(sb.String(), "\n"))
	}
}

// PrintFeedback outputs the daily coaching report section by section.
func (p *Printer) PrintFeedback(fb *types.DailyFeedback) {
	if fb == nil {
		return
	}

	var sb strings.Builder
	if s := fb.FailedSubmissionAnalysis.Summary; s != "" {
		sb.WriteString(s + "\n")
	}
	writeList(&sb, "Common mistakes", fb.FailedSubmissionAnalysis.CommonMistakes, maxItemsToShow)
	p.printBox("FAILED SUBMISSIONS", strings.TrimSuffix(sb.String(), "\n"))

	sb.Reset()
	if fb.RatingDiagnosis.CurrentState != "" {
		sb.WriteString("State: " + fb.RatingDiagnosis.CurrentState + "\n")
	}
	if fb.RatingDiagnosis.Trend != "" {
		sb.WriteString("Trend: " + fb.RatingDiagnosis.Trend + "\n")
	}
	writeList(&sb, "Bottlenecks", fb.RatingDiagnosis.Bottlenecks, 3)
	p.printBox("RATING", strings.TrimSuffix(sb.String(), "\n"))

	sb.Reset()
	writeList(&sb, "Strengths", fb.TagFeedback.Strengths, 3)
	writeList(&sb, "Weaknesses", fb.TagFeedback.Weaknesses, 3)
	p.printBox("TAGS", strings.TrimSuffix(sb.String(), "\n"))

	sb.Reset()
	writeList(&sb, "Today", fb.SuggestedPriorities.Today, maxItemsToShow)
	writeList(&sb, "This week", fb.SuggestedPriorities.ThisWeek, maxItemsToShow)
	writeList(&sb, "Long term", fb.SuggestedPriorities.LongTerm, 3)
	p.printBox("PRIORITIES", strings.TrimSuffix(sb.String(), "\n"))
}
