package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/selivandex/stockbrief/internal/pipeline"
	"github.com/selivandex/stockbrief/pkg/models"
)

const (
	reportWidth = 76
	gaugeWidth  = 10
)

const disclaimer = "This is a research tool, not financial advice. " +
	"Always do your own due diligence before making investment decisions."

// sentimentBand maps a score floor to its display style and label
type sentimentBand struct {
	floor float64
	style lipgloss.Style
	label string
}

var sentimentBands = []sentimentBand{
	{0.5, upStyle, "Very Bullish"},
	{0.3, upStyle, "Bullish"},
	{0.1, upStyle, "Slightly Bullish"},
	{-0.1, flatStyle, "Neutral"},
	{-0.3, downStyle, "Slightly Bearish"},
	{-0.5, downStyle, "Bearish"},
}

// Terminal renders an analysis report as a styled terminal brief
type Terminal struct {
	w io.Writer
}

// NewTerminal creates a terminal renderer writing to w
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Render writes the full brief. A degraded analysis has no structured
// fields, so only the raw model text is shown.
func (t *Terminal) Render(report *pipeline.Report) {
	a := report.Analysis

	if a.Degraded {
		raw := a.RawResponse
		if raw == "" {
			raw = "(empty)"
		}
		title := fmt.Sprintf("%s / Raw model response (parse failed)", report.Subject)
		fmt.Fprintln(t.w, t.panel(title, flatStyle.Render(raw), colorFlat))
		return
	}

	fmt.Fprintln(t.w)
	fmt.Fprintln(t.w, t.rule(report))
	fmt.Fprintln(t.w, t.priceSnapshot(report))
	fmt.Fprintln(t.w, t.sentimentGauges(a))
	fmt.Fprintln(t.w, t.bullBear(a))
	fmt.Fprintln(t.w, t.news(a))
	fmt.Fprintln(t.w, t.social(a))
	fmt.Fprintln(t.w, t.filings(a))
	fmt.Fprintln(t.w, t.earnings(a))
	if s := t.discrepancies(a); s != "" {
		fmt.Fprintln(t.w, s)
	}
	if s := t.keySignals(a); s != "" {
		fmt.Fprintln(t.w, s)
	}
	fmt.Fprintln(t.w, t.technical(a))
	fmt.Fprintln(t.w, t.verdict(a))
	if s := t.dataQuality(a); s != "" {
		fmt.Fprintln(t.w, s)
	}
	fmt.Fprintln(t.w, t.panel("", dimStyle.Italic(true).Render(disclaimer), colorDim))
	fmt.Fprintln(t.w)
}

func (t *Terminal) rule(report *pipeline.Report) string {
	company := "N/A"
	if r, ok := report.Results[models.SourcePrice]; ok && r.Price != nil {
		company = r.Price.CompanyName
	}
	head := fmt.Sprintf(" %s / %s    %s ",
		report.Subject, company, report.GeneratedAt.Format("2006-01-02"))
	pad := reportWidth - lipgloss.Width(head)
	if pad < 2 {
		pad = 2
	}
	line := strings.Repeat("─", pad/2)
	return ruleStyle.Render(line + head + line)
}

func (t *Terminal) panel(title, body string, border lipgloss.AdaptiveColor) string {
	box := panelStyle.BorderForeground(border).Width(reportWidth)
	if title == "" {
		return box.Render(body)
	}
	head := panelTitleStyle.Foreground(border).Render(title)
	return box.Render(head + "\n" + body)
}

func (t *Terminal) priceSnapshot(report *pipeline.Report) string {
	r, ok := report.Results[models.SourcePrice]
	if !ok || r.Price == nil {
		return t.panel("PRICE SNAPSHOT", dimStyle.Render("Price data unavailable."), colorHeading)
	}
	p := r.Price
	cur := p.CurrencyPrefix()

	changeStyle := upStyle
	sign := "+"
	if p.DayChangePct < 0 {
		changeStyle = downStyle
		sign = ""
	}
	change := changeStyle.Render(fmt.Sprintf("%s%s / %s%.2f%%",
		cur, p.DayChange.StringFixed(2), sign, p.DayChangePct))

	rangeStr := fmt.Sprintf("%s%s — %s%s",
		cur, p.Week52Low.StringFixed(2), cur, p.Week52High.StringFixed(2))

	rows := [][2]string{
		{"Price:", fmt.Sprintf("%s%s  %s", cur, p.CurrentPrice.StringFixed(2), change)},
		{"52W Range:", rangeStr},
		{"Market Cap:", fmtLarge(p.MarketCap, cur)},
		{"Trailing P/E:", fmtRatio(p.PETrailing)},
		{"Avg Vol (10d):", fmtVolume(p.Volume10DayAvg)},
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-15s", row[0])))
		b.WriteString(row[1])
	}
	return t.panel("PRICE SNAPSHOT", b.String(), colorHeading)
}

func (t *Terminal) sentimentGauges(a *models.AnalysisResult) string {
	var b strings.Builder

	writeRow := func(label string, score float64, annotation string) {
		style, _ := scoreBand(score)
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(gauge(score, style))
		b.WriteString(style.Render(fmt.Sprintf("  %+.2f  ", score)))
		if annotation != "" {
			b.WriteString(dimStyle.Render(annotation))
		}
		b.WriteString("\n")
	}

	if o := a.OverallSentiment; o != nil {
		annotation := fmt.Sprintf("%s  Confidence: %.0f%%", o.Label, o.Confidence*100)
		writeRow("Overall", o.Score, annotation)
	}
	if n := a.NewsSentiment; n != nil {
		writeRow("News", n.Score, "")
	}
	if s := a.SocialSentiment; s != nil {
		annotation := ""
		if s.Mood != "" {
			annotation = "Mood: " + s.Mood
		}
		writeRow("Reddit", s.Score, annotation)
	}
	return t.panel("SENTIMENT GAUGE", strings.TrimRight(b.String(), "\n"), colorHeading)
}

func (t *Terminal) bullBear(a *models.AnalysisResult) string {
	half := reportWidth/2 - 1
	box := panelStyle.Width(half)

	bull := bulletList(a.BullCase, bulletUpStyle.Render("• "))
	bear := bulletList(a.BearCase, bulletDownStyle.Render("• "))

	bullPanel := box.BorderForeground(colorUp).Render(
		panelTitleStyle.Foreground(colorUp).Render("BULL CASE") + "\n" + bull)
	bearPanel := box.BorderForeground(colorDown).Render(
		panelTitleStyle.Foreground(colorDown).Render("BEAR CASE") + "\n" + bear)

	return lipgloss.JoinHorizontal(lipgloss.Top, bullPanel, " ", bearPanel)
}

func (t *Terminal) news(a *models.AnalysisResult) string {
	n := a.NewsSentiment
	if n == nil {
		return t.panel("NEWS SUMMARY", dimStyle.Render("No news summary available."), colorHeading)
	}

	var b strings.Builder
	b.WriteString(bodyStyle.Render(orDefault(n.Summary, "No news summary available.")))
	if len(n.KeyArticles) > 0 {
		b.WriteString("\n\n" + labelStyle.Render("Key articles:") + "\n")
		b.WriteString(bulletList(n.KeyArticles, dimStyle.Render("• ")))
	}
	title := fmt.Sprintf("NEWS SUMMARY (%d articles)", countOrZero(a.DataQuality, func(q *models.DataQuality) int { return q.NewsCount }))
	return t.panel(title, b.String(), colorHeading)
}

func (t *Terminal) social(a *models.AnalysisResult) string {
	s := a.SocialSentiment
	if s == nil {
		return t.panel("REDDIT PULSE", dimStyle.Render("No Reddit data available."), colorHeading)
	}

	var b strings.Builder
	b.WriteString(bodyStyle.Render(orDefault(s.Summary, "No Reddit data available.")))
	if len(s.NotablePosts) > 0 {
		b.WriteString("\n\n" + labelStyle.Render("Notable posts:") + "\n")
		b.WriteString(bulletList(s.NotablePosts, dimStyle.Render("• ")))
	}
	title := fmt.Sprintf("REDDIT PULSE (%d posts, mood: %s)",
		countOrZero(a.DataQuality, func(q *models.DataQuality) int { return q.SocialCount }),
		orDefault(s.Mood, "N/A"))
	return t.panel(title, b.String(), colorHeading)
}

func (t *Terminal) filings(a *models.AnalysisResult) string {
	f := a.Filings
	if f == nil {
		return t.panel("SEC FILINGS", dimStyle.Render("No SEC filings data."), colorHeading)
	}

	var b strings.Builder
	b.WriteString(bodyStyle.Render(orDefault(f.Summary, "No SEC filings data.")))
	if len(f.RedFlags) > 0 {
		b.WriteString("\n\n" + downStyle.Bold(true).Render("Red flags:") + "\n")
		b.WriteString(bulletList(f.RedFlags, downStyle.Render("⚠  ")))
	}
	title := fmt.Sprintf("SEC FILINGS (%d recent filings)",
		countOrZero(a.DataQuality, func(q *models.DataQuality) int { return q.FilingCount }))
	return t.panel(title, b.String(), colorHeading)
}

func (t *Terminal) earnings(a *models.AnalysisResult) string {
	e := a.Earnings
	if e == nil {
		return t.panel("EARNINGS", dimStyle.Render("No earnings data available."), colorHeading)
	}

	bomStyle := dimStyle
	switch e.BeatOrMiss {
	case models.EarningsBeat:
		bomStyle = upStyle
	case models.EarningsMiss:
		bomStyle = downStyle
	case models.EarningsInLine:
		bomStyle = flatStyle
	}

	var b strings.Builder
	b.WriteString("Last quarter: ")
	b.WriteString(bomStyle.Bold(true).Render(orDefault(e.BeatOrMiss, "N/A")))
	if e.DaysUntilNext != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d days until next earnings", *e.DaysUntilNext)))
	}
	b.WriteString("\n")
	b.WriteString(bodyStyle.Render(orDefault(e.Summary, "No earnings data available.")))
	return t.panel("EARNINGS", b.String(), colorHeading)
}

func (t *Terminal) discrepancies(a *models.AnalysisResult) string {
	if len(a.Discrepancies) == 0 {
		return ""
	}
	return t.panel("DISCREPANCIES", bulletList(a.Discrepancies, flatStyle.Render("⚠  ")), colorFlat)
}

func (t *Terminal) keySignals(a *models.AnalysisResult) string {
	if len(a.KeySignals) == 0 {
		return ""
	}
	return t.panel("KEY SIGNALS", bulletList(a.KeySignals, alertStyle.Render("▸ ")), colorAlert)
}

func (t *Terminal) technical(a *models.AnalysisResult) string {
	return t.panel("TECHNICAL SNAPSHOT",
		bodyStyle.Render(orDefault(a.TechnicalSnapshot, "No technical data available.")), colorHeading)
}

func (t *Terminal) verdict(a *models.AnalysisResult) string {
	return t.panel("VERDICT", orDefault(a.Verdict, "No verdict available."), colorBody)
}

func (t *Terminal) dataQuality(a *models.AnalysisResult) string {
	q := a.DataQuality
	if q == nil || (len(q.DataGaps) == 0 && q.ConfidenceNote == "") {
		return ""
	}
	var b strings.Builder
	b.WriteString(bulletList(q.DataGaps, dimStyle.Render("• ")))
	if q.ConfidenceNote != "" {
		if len(q.DataGaps) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(dimStyle.Italic(true).Render(q.ConfidenceNote))
	}
	return t.panel("DATA QUALITY", b.String(), colorDim)
}

// scoreBand maps a sentiment score in [-1, 1] to a style and label
func scoreBand(score float64) (lipgloss.Style, string) {
	for _, band := range sentimentBands {
		if score >= band.floor {
			return band.style, band.label
		}
	}
	return downStyle, "Very Bearish"
}

// gauge draws a fixed-width block bar for a score in [-1, 1]
func gauge(score float64, style lipgloss.Style) string {
	filled := int((score+1.0)/2.0*gaugeWidth + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > gaugeWidth {
		filled = gaugeWidth
	}
	return style.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", gaugeWidth-filled))
}

func bulletList(items []string, bullet string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, bullet+bodyStyle.Render(item))
	}
	return strings.Join(lines, "\n")
}

func countOrZero(q *models.DataQuality, pick func(*models.DataQuality) int) int {
	if q == nil {
		return 0
	}
	return pick(q)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func fmtLarge(value int64, prefix string) string {
	v := float64(value)
	switch {
	case value <= 0:
		return "N/A"
	case v >= 1e12:
		return fmt.Sprintf("%s%.2fT", prefix, v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%s%.2fB", prefix, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s%.2fM", prefix, v/1e6)
	default:
		return fmt.Sprintf("%s%d", prefix, value)
	}
}

func fmtVolume(value int64) string {
	v := float64(value)
	switch {
	case value <= 0:
		return "N/A"
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%d", value)
	}
}

func fmtRatio(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1fx", *v)
}
