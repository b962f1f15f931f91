package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/selivandex/stockbrief/internal/pipeline"
	"github.com/selivandex/stockbrief/pkg/models"
)

// MarkdownWriter saves an analysis report as a markdown file
type MarkdownWriter struct {
	dir string
}

// NewMarkdownWriter creates a writer that saves reports under dir
func NewMarkdownWriter(dir string) *MarkdownWriter {
	return &MarkdownWriter{dir: dir}
}

// Write renders the report to {SYMBOL}_{date}.md in the writer's
// directory and returns the file path.
func (m *MarkdownWriter) Write(report *pipeline.Report) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.md", report.Subject.SafeKey(), report.GeneratedAt.Format("2006-01-02"))
	path := filepath.Join(m.dir, name)

	if err := os.WriteFile(path, []byte(renderMarkdown(report)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func renderMarkdown(report *pipeline.Report) string {
	a := report.Analysis
	var b strings.Builder

	company := ""
	if r, ok := report.Results[models.SourcePrice]; ok && r.Price != nil {
		company = r.Price.CompanyName
	}
	title := report.Subject.String()
	if company != "" {
		title += " / " + company
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "_Generated %s_\n\n", report.GeneratedAt.Format("2006-01-02"))

	if a.Degraded {
		b.WriteString("## Raw Model Response\n\n")
		b.WriteString("The analysis response could not be parsed; the raw text follows.\n\n")
		fmt.Fprintf(&b, "```\n%s\n```\n\n", a.RawResponse)
		b.WriteString(mdDisclaimer())
		return b.String()
	}

	mdPriceSnapshot(&b, report)
	mdSentiment(&b, a)
	mdCases(&b, a)
	mdSection(&b, a.NewsSentiment, "News Summary", func(n *models.NewsSentiment) (string, []string, string) {
		return n.Summary, n.KeyArticles, "Key articles"
	})
	mdSection(&b, a.SocialSentiment, "Reddit Pulse", func(s *models.SocialSentiment) (string, []string, string) {
		return s.Summary, s.NotablePosts, "Notable posts"
	})
	mdSection(&b, a.Filings, "SEC Filings", func(f *models.FilingsAssessment) (string, []string, string) {
		return f.Summary, f.RedFlags, "Red flags"
	})
	mdEarnings(&b, a)
	mdList(&b, "Discrepancies", a.Discrepancies)
	mdList(&b, "Key Signals", a.KeySignals)

	if a.TechnicalSnapshot != "" {
		fmt.Fprintf(&b, "## Technical Snapshot\n\n%s\n\n", a.TechnicalSnapshot)
	}
	if a.Verdict != "" {
		fmt.Fprintf(&b, "## Verdict\n\n%s\n\n", a.Verdict)
	}
	mdDataQuality(&b, a)

	b.WriteString(mdDisclaimer())
	return b.String()
}

func mdPriceSnapshot(b *strings.Builder, report *pipeline.Report) {
	b.WriteString("## Price Snapshot\n\n")

	r, ok := report.Results[models.SourcePrice]
	if !ok || r.Price == nil {
		b.WriteString("Price data unavailable.\n\n")
		return
	}
	p := r.Price
	cur := p.CurrencyPrefix()

	sign := "+"
	if p.DayChangePct < 0 {
		sign = ""
	}

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(b, "| Price | %s%s (%s%.2f%%) |\n", cur, p.CurrentPrice.StringFixed(2), sign, p.DayChangePct)
	fmt.Fprintf(b, "| 52W Range | %s%s — %s%s |\n", cur, p.Week52Low.StringFixed(2), cur, p.Week52High.StringFixed(2))
	fmt.Fprintf(b, "| Market Cap | %s |\n", fmtLarge(p.MarketCap, cur))
	fmt.Fprintf(b, "| Trailing P/E | %s |\n", fmtRatio(p.PETrailing))
	fmt.Fprintf(b, "| Avg Vol (10d) | %s |\n", fmtVolume(p.Volume10DayAvg))
	b.WriteString("\n")
}

func mdSentiment(b *strings.Builder, a *models.AnalysisResult) {
	b.WriteString("## Sentiment\n\n")
	b.WriteString("| Source | Score | Reading |\n|---|---|---|\n")

	if o := a.OverallSentiment; o != nil {
		_, label := scoreBand(o.Score)
		fmt.Fprintf(b, "| Overall | %+.2f | %s (confidence %.0f%%) |\n",
			o.Score, orDefault(o.Label, label), o.Confidence*100)
	}
	if n := a.NewsSentiment; n != nil {
		_, label := scoreBand(n.Score)
		fmt.Fprintf(b, "| News | %+.2f | %s |\n", n.Score, label)
	}
	if s := a.SocialSentiment; s != nil {
		_, label := scoreBand(s.Score)
		reading := label
		if s.Mood != "" {
			reading += ", mood: " + s.Mood
		}
		fmt.Fprintf(b, "| Reddit | %+.2f | %s |\n", s.Score, reading)
	}
	b.WriteString("\n")
}

func mdCases(b *strings.Builder, a *models.AnalysisResult) {
	mdList(b, "Bull Case", a.BullCase)
	mdList(b, "Bear Case", a.BearCase)
}

func mdSection[T any](b *strings.Builder, v *T, heading string, pick func(*T) (string, []string, string)) {
	if v == nil {
		return
	}
	summary, items, itemsHeading := pick(v)
	fmt.Fprintf(b, "## %s\n\n", heading)
	if summary != "" {
		b.WriteString(summary + "\n\n")
	}
	if len(items) > 0 {
		fmt.Fprintf(b, "**%s:**\n\n", itemsHeading)
		for _, item := range items {
			fmt.Fprintf(b, "- %s\n", item)
		}
		b.WriteString("\n")
	}
}

func mdEarnings(b *strings.Builder, a *models.AnalysisResult) {
	e := a.Earnings
	if e == nil {
		return
	}
	b.WriteString("## Earnings\n\n")
	fmt.Fprintf(b, "Last quarter: **%s**", orDefault(e.BeatOrMiss, "N/A"))
	if e.DaysUntilNext != nil {
		fmt.Fprintf(b, " (%d days until next earnings)", *e.DaysUntilNext)
	}
	b.WriteString("\n\n")
	if e.Summary != "" {
		b.WriteString(e.Summary + "\n\n")
	}
}

func mdDataQuality(b *strings.Builder, a *models.AnalysisResult) {
	q := a.DataQuality
	if q == nil || (len(q.DataGaps) == 0 && q.ConfidenceNote == "") {
		return
	}
	b.WriteString("## Data Quality\n\n")
	for _, gap := range q.DataGaps {
		fmt.Fprintf(b, "- %s\n", gap)
	}
	if len(q.DataGaps) > 0 {
		b.WriteString("\n")
	}
	if q.ConfidenceNote != "" {
		fmt.Fprintf(b, "_%s_\n\n", q.ConfidenceNote)
	}
}

func mdList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func mdDisclaimer() string {
	return "---\n\n_" + disclaimer + "_\n"
}
