package bundle

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cinar/indicator"
	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// charsPerToken is the rough BPE average used for budget estimates
const charsPerToken = 4

// recent bars shown in the OHLCV table
const tableBars = 10

// smaPeriod drives the short-trend note in the price section
const smaPeriod = 5

// Bundle is the assembled model context plus truncation bookkeeping.
// Truncation is never silent: every dropped or stripped item is counted
// so downstream reporting can disclose it.
type Bundle struct {
	Text            string
	EstimatedTokens int

	TruncatedArticles   int
	TruncatedPosts      int
	StrippedFilingTexts int
	StrippedComments    int
}

// TruncatedCount is the total number of items affected by truncation
func (b Bundle) TruncatedCount() int {
	return b.TruncatedArticles + b.TruncatedPosts + b.StrippedFilingTexts + b.StrippedComments
}

// Truncated reports whether any content was cut to fit the budget
func (b Bundle) Truncated() bool { return b.TruncatedCount() > 0 }

// Inputs carries the (possibly nil) payloads of the five fetchers.
// A nil payload renders as an explicit unavailability line so the model
// knows the source was missing rather than empty.
type Inputs struct {
	Price    *models.PriceSnapshot
	News     *models.NewsSet
	Social   *models.SocialSet
	Filings  *models.FilingSet
	Earnings *models.EarningsSnapshot
}

// Builder assembles the XML-style context bundle under a token budget
type Builder struct {
	maxTokens int
}

// NewBuilder creates a bundle builder with the given token budget
func NewBuilder(maxTokens int) *Builder {
	return &Builder{maxTokens: maxTokens}
}

// Build renders all sections and then trims content in priority order
// until the estimate fits the budget: oldest news articles first, then
// lowest-scored posts, then event disclosure full texts, then comment
// excerpts. Price stats, earnings, and filing metadata are never cut.
func (b *Builder) Build(in Inputs) Bundle {
	articles := cloneArticles(in.News)
	posts := clonePosts(in.Social)
	filings := cloneFilings(in.Filings)

	out := Bundle{}
	render := func() string {
		return b.render(in, articles, posts, filings, out)
	}

	text := render()

	// Pass 1: drop oldest articles (list is newest first)
	for estimateTokens(text) > b.maxTokens && len(articles) > 0 {
		articles = articles[:len(articles)-1]
		out.TruncatedArticles++
		text = render()
	}

	// Pass 2: drop lowest-scored posts (list is score descending)
	for estimateTokens(text) > b.maxTokens && len(posts) > 0 {
		posts = posts[:len(posts)-1]
		out.TruncatedPosts++
		text = render()
	}

	// Pass 3: strip event disclosure full texts, metadata stays
	for i := range filings {
		if estimateTokens(text) <= b.maxTokens {
			break
		}
		if filings[i].Content != "" {
			filings[i].Content = ""
			out.StrippedFilingTexts++
			text = render()
		}
	}

	// Pass 4: strip comment excerpts
	for i := range posts {
		if estimateTokens(text) <= b.maxTokens {
			break
		}
		if len(posts[i].TopComments) > 0 {
			out.StrippedComments += len(posts[i].TopComments)
			posts[i].TopComments = nil
			text = render()
		}
	}

	out.Text = text
	out.EstimatedTokens = estimateTokens(text)

	if out.Truncated() {
		logger.Info("context bundle truncated to fit budget",
			zap.Int("estimated_tokens", out.EstimatedTokens),
			zap.Int("budget", b.maxTokens),
			zap.Int("dropped_articles", out.TruncatedArticles),
			zap.Int("dropped_posts", out.TruncatedPosts),
			zap.Int("stripped_filing_texts", out.StrippedFilingTexts),
			zap.Int("stripped_comments", out.StrippedComments),
		)
	} else {
		logger.Debug("context bundle built",
			zap.Int("estimated_tokens", out.EstimatedTokens),
		)
	}
	return out
}

func (b *Builder) render(in Inputs, articles []models.NewsItem, posts []models.SocialPost, filings []models.FilingRecord, state Bundle) string {
	sections := []string{
		tickerInfoSection(in.Price),
		priceDataSection(in.Price),
		newsSection(in.News, articles, state.TruncatedArticles),
		socialSection(in.Social, posts, state.TruncatedPosts),
		filingsSection(in.Filings, filings),
		earningsSection(in.Earnings),
	}
	return strings.Join(sections, "\n\n")
}

func estimateTokens(text string) int {
	return len(text) / charsPerToken
}

func cloneArticles(set *models.NewsSet) []models.NewsItem {
	if set == nil {
		return nil
	}
	out := make([]models.NewsItem, len(set.Articles))
	copy(out, set.Articles)
	return out
}

func clonePosts(set *models.SocialSet) []models.SocialPost {
	if set == nil {
		return nil
	}
	out := make([]models.SocialPost, len(set.Posts))
	copy(out, set.Posts)
	return out
}

func cloneFilings(set *models.FilingSet) []models.FilingRecord {
	if set == nil {
		return nil
	}
	out := make([]models.FilingRecord, len(set.Filings))
	copy(out, set.Filings)
	return out
}

func tickerInfoSection(price *models.PriceSnapshot) string {
	if price == nil {
		return "<ticker_info>\nPrice data unavailable.\n</ticker_info>"
	}

	prefix := price.CurrencyPrefix()
	sign := "+"
	if price.DayChange.IsNegative() {
		sign = ""
	}

	lines := []string{
		"<ticker_info>",
		"Symbol: " + orNA(price.Symbol),
		"Company: " + orNA(price.CompanyName),
		"Sector: " + orNA(price.Sector),
		"Currency: " + orNA(price.Currency),
		fmt.Sprintf("Current Price: %s%s (%s%s / %+.2f%%)",
			prefix, price.CurrentPrice.StringFixed(2),
			sign, price.DayChange.StringFixed(2), price.DayChangePct),
		fmt.Sprintf("Previous Close: %s%s", prefix, price.PreviousClose.StringFixed(2)),
		fmt.Sprintf("52-Week Range: %s%s to %s%s",
			prefix, price.Week52Low.StringFixed(2), prefix, price.Week52High.StringFixed(2)),
		"Market Cap: " + fmtLarge(price.MarketCap, prefix),
		"Avg Volume (10d): " + fmtVolume(price.Volume10DayAvg),
		"Avg Volume (3m): " + fmtVolume(price.Volume3MonthAvg),
		"Trailing P/E: " + fmtFloatPtr(price.PETrailing),
		"Forward P/E: " + fmtFloatPtr(price.PEForward),
		"EPS (TTM): " + fmtFloatPtr(price.EPSTrailing),
		"Dividend Yield: " + fmtPctPtr(price.DividendYield),
		"Beta: " + fmtFloatPtr(price.Beta),
		"</ticker_info>",
	}
	return strings.Join(lines, "\n")
}

func priceDataSection(price *models.PriceSnapshot) string {
	if price == nil || len(price.Bars) == 0 {
		return "<price_data>\nNo OHLCV data available.\n</price_data>"
	}

	bars := price.Bars
	first, last := bars[0], bars[len(bars)-1]
	prefix := price.CurrencyPrefix()

	periodHigh, periodLow := first.High, first.Low
	var volumeSum int64
	for _, bar := range bars {
		if bar.High > periodHigh {
			periodHigh = bar.High
		}
		if bar.Low < periodLow {
			periodLow = bar.Low
		}
		volumeSum += bar.Volume
	}

	var sb strings.Builder
	sb.WriteString("<price_data>\n")
	fmt.Fprintf(&sb, "Period: %s to %s (%d trading days)\n", first.Date, last.Date, len(bars))
	if first.Open != 0 {
		change := (last.Close - first.Open) / first.Open * 100
		fmt.Fprintf(&sb, "Period change: %+.2f%% (%s%.2f to %s%.2f)\n",
			change, prefix, first.Open, prefix, last.Close)
	}
	fmt.Fprintf(&sb, "Period High: %s%.2f  |  Period Low: %s%.2f\n",
		prefix, periodHigh, prefix, periodLow)
	fmt.Fprintf(&sb, "Average Daily Volume: %s\n", fmtVolume(volumeSum/int64(len(bars))))

	if note := trendNote(price.Closes()); note != "" {
		sb.WriteString(note + "\n")
	}

	sb.WriteString("\nRecent OHLCV (last 10 bars):\n")
	sb.WriteString("Date         Open      High      Low       Close     Volume\n")
	start := 0
	if len(bars) > tableBars {
		start = len(bars) - tableBars
	}
	for _, bar := range bars[start:] {
		fmt.Fprintf(&sb, "%-12s %9.2f %9.2f %9.2f %9.2f %12d\n",
			bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}
	sb.WriteString("</price_data>")
	return sb.String()
}

// trendNote compares the latest short moving average against its value
// one period earlier. Within 2% counts as sideways.
func trendNote(closes []float64) string {
	if len(closes) < 2*smaPeriod {
		return ""
	}

	sma := indicator.Sma(smaPeriod, closes)
	recent := sma[len(sma)-1]
	prior := sma[len(sma)-1-smaPeriod]
	if prior == 0 {
		return ""
	}

	switch {
	case recent > prior*1.02:
		return "Recent trend: Upward (5-day SMA above prior period)."
	case recent < prior*0.98:
		return "Recent trend: Downward (5-day SMA below prior period)."
	default:
		return "Recent trend: Sideways (5-day SMA near prior period)."
	}
}

func newsSection(set *models.NewsSet, articles []models.NewsItem, trimmed int) string {
	if set == nil {
		return "<news_articles>\nNews data unavailable.\n</news_articles>"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<news_articles count="%d"`, len(articles))
	if trimmed > 0 {
		fmt.Fprintf(&sb, ` trimmed="%d"`, trimmed)
	}
	sb.WriteString(">\n")

	if len(articles) == 0 {
		sb.WriteString("No news articles found for this period.\n")
	}
	for _, a := range articles {
		fmt.Fprintf(&sb, "<article source=%q date=%q origin=%q>\n",
			escape(orNA(a.Source)), a.PublishedAt.Format("2006-01-02"), a.Origin)
		fmt.Fprintf(&sb, "Headline: %s\n", escape(a.Title))
		if a.Summary != "" {
			fmt.Fprintf(&sb, "Summary: %s\n", escape(a.Summary))
		}
		sb.WriteString("</article>\n")
	}
	sb.WriteString("</news_articles>")
	return sb.String()
}

func socialSection(set *models.SocialSet, posts []models.SocialPost, trimmed int) string {
	if set == nil {
		return "<reddit_posts>\nReddit data unavailable.\n</reddit_posts>"
	}

	subreddits := make([]string, 0, len(set.Stats.Breakdown))
	for sub := range set.Stats.Breakdown {
		subreddits = append(subreddits, sub)
	}
	sort.Strings(subreddits)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<reddit_posts count="%d" subreddits=%q`, len(posts), strings.Join(subreddits, ","))
	if trimmed > 0 {
		fmt.Fprintf(&sb, ` trimmed="%d"`, trimmed)
	}
	sb.WriteString(">\n")

	mostActive, mostActiveCount := "N/A", 0
	for sub, count := range set.Stats.Breakdown {
		if count > mostActiveCount || (count == mostActiveCount && sub < mostActive) {
			mostActive, mostActiveCount = sub, count
		}
	}

	sb.WriteString("<summary>\n")
	fmt.Fprintf(&sb, "Total posts found: %d\n", set.Stats.TotalPosts)
	fmt.Fprintf(&sb, "Posts included: %d\n", len(posts))
	fmt.Fprintf(&sb, "Average post score: %.1f\n", set.Stats.AvgScore)
	fmt.Fprintf(&sb, "Total comments: %d\n", set.Stats.TotalComments)
	fmt.Fprintf(&sb, "Most active subreddit: %s (%d posts)\n", mostActive, mostActiveCount)
	sb.WriteString("</summary>\n")

	if len(posts) == 0 {
		sb.WriteString("No Reddit posts found for this ticker.\n")
	}
	for _, p := range posts {
		fmt.Fprintf(&sb, "<post subreddit=%q score=\"%d\" comments=\"%d\" date=%q>\n",
			p.Subreddit, p.Score, p.NumComments, p.CreatedAt.Format("2006-01-02"))
		fmt.Fprintf(&sb, "Title: %s\n", escape(p.Title))
		if body := strings.TrimSpace(p.Body); body != "" {
			fmt.Fprintf(&sb, "Body: %s\n", escape(clip(body, 500)))
		}
		if len(p.TopComments) > 0 {
			sb.WriteString("Top comments:\n")
			for _, c := range p.TopComments {
				fmt.Fprintf(&sb, "  [%d] %s\n", c.Score, escape(clip(c.Body, 200)))
			}
		}
		sb.WriteString("</post>\n")
	}
	sb.WriteString("</reddit_posts>")
	return sb.String()
}

func filingsSection(set *models.FilingSet, filings []models.FilingRecord) string {
	if set == nil {
		return "<sec_filings>\nSEC filings data unavailable.\n</sec_filings>"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<sec_filings count=\"%d\">\n", len(filings))

	switch {
	case !set.USListed:
		sb.WriteString(orDefault(set.Note, "No SEC filings (non-US listed security).") + "\n")
	case len(filings) == 0:
		sb.WriteString(orDefault(set.Note, "No recent SEC filings found.") + "\n")
	default:
		if set.Note != "" {
			fmt.Fprintf(&sb, "Note: %s\n", set.Note)
		}
		for _, f := range filings {
			fmt.Fprintf(&sb, "<filing type=%q date=%q>\n", f.FormType, f.FilingDate)
			if f.Description != "" {
				fmt.Fprintf(&sb, "Description: %s\n", escape(f.Description))
			}
			fmt.Fprintf(&sb, "URL: %s\n", f.URL)
			if f.Content != "" {
				fmt.Fprintf(&sb, "Content: %s\n", escape(f.Content))
			}
			sb.WriteString("</filing>\n")
		}
	}
	sb.WriteString("</sec_filings>")
	return sb.String()
}

func earningsSection(earnings *models.EarningsSnapshot) string {
	if earnings == nil {
		return "<earnings>\nEarnings data unavailable.\n</earnings>"
	}

	nextStr := "Unknown"
	if earnings.NextDate != nil {
		nextStr = *earnings.NextDate
		if dt, err := time.Parse("2006-01-02", nextStr); err == nil {
			nextStr = dt.Format("January 2, 2006")
		}
		if earnings.DaysUntilNext != nil {
			nextStr += fmt.Sprintf(" (%d days away)", *earnings.DaysUntilNext)
		}
	}

	period, lastQ := "N/A", "Result: "+models.EarningsNA
	if q := earnings.LastQuarter; q != nil {
		period = orNA(q.Period)
		parts := []string{"Result: " + orNA(q.BeatOrMiss)}
		if q.EPSEstimate != nil && q.EPSActual != nil {
			parts = append(parts, fmt.Sprintf("EPS estimate %.2f vs actual %.2f", *q.EPSEstimate, *q.EPSActual))
		}
		if q.EPSSurprisePct != nil {
			parts = append(parts, fmt.Sprintf("EPS surprise: %+.2f%%", *q.EPSSurprisePct))
		}
		lastQ = strings.Join(parts, ", ")
	}

	lines := []string{
		"<earnings>",
		"Next earnings date: " + nextStr,
		fmt.Sprintf("Most recent quarter (%s): %s", period, lastQ),
		"</earnings>",
	}
	return strings.Join(lines, "\n")
}

func fmtLarge(value int64, prefix string) string {
	switch {
	case value <= 0:
		return "N/A"
	case value >= 1_000_000_000_000:
		return fmt.Sprintf("%s%.2fT", prefix, float64(value)/1e12)
	case value >= 1_000_000_000:
		return fmt.Sprintf("%s%.2fB", prefix, float64(value)/1e9)
	case value >= 1_000_000:
		return fmt.Sprintf("%s%.2fM", prefix, float64(value)/1e6)
	default:
		return fmt.Sprintf("%s%d", prefix, value)
	}
}

func fmtVolume(value int64) string {
	switch {
	case value <= 0:
		return "N/A"
	case value >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(value)/1e6)
	case value >= 1_000:
		return fmt.Sprintf("%.1fK", float64(value)/1e3)
	default:
		return fmt.Sprintf("%d", value)
	}
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

// fmtPctPtr formats a decimal fraction as a percentage (0.0044 -> 0.44%)
func fmtPctPtr(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// clip shortens s to at most limit bytes, backing off to the nearest
// rune boundary so the cut never leaves invalid UTF-8.
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

var xmlEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return xmlEscaper.Replace(s)
}
