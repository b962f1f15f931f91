package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/internal/adapters/config"
	"github.com/selivandex/stockbrief/internal/cache"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// The company tickers file changes rarely, so it gets a much longer TTL
// than regular fetch payloads.
const (
	tickersCacheKey = "SEC_COMPANY_TICKERS"
	tickersCacheSrc = "meta"
	tickersCacheTTL = 24 * time.Hour
)

// eventDisclosureContentCap bounds the plain text carried for an 8-K
const eventDisclosureContentCap = 3000

// nonUSSuffixes are exchange suffixes whose securities file with local
// regulators instead of the SEC. Single-letter US share classes (BRK.A)
// are deliberately absent.
var nonUSSuffixes = map[string]bool{
	"TO": true, "V": true, "CN": true,
	"L":  true,
	"PA": true, "AS": true, "BR": true, "DE": true,
	"T": true, "TYO": true,
	"AX": true,
	"HK": true,
	"SS": true, "SZ": true,
}

var targetForms = map[string]bool{"10-K": true, "10-Q": true, "8-K": true}

// EDGARFetcher retrieves recent regulatory filings from SEC EDGAR
type EDGARFetcher struct {
	submissionsURL string
	tickersURL     string
	archivesURL    string
	userAgent      string
	client         *http.Client
	store          *cache.Store
	ttl            time.Duration
	now            func() time.Time
}

// NewEDGARFetcher creates the filings fetcher
func NewEDGARFetcher(cfg *config.FilingsConfig, store *cache.Store, ttl time.Duration) *EDGARFetcher {
	return &EDGARFetcher{
		submissionsURL: cfg.SubmissionsURL,
		tickersURL:     cfg.TickersURL,
		archivesURL:    cfg.ArchivesURL,
		userAgent:      cfg.UserAgent,
		client:         &http.Client{Timeout: cfg.Timeout},
		store:          store,
		ttl:            ttl,
		now:            time.Now,
	}
}

func (f *EDGARFetcher) Name() string { return models.SourceFilings }

// Fetch implements fetch.Fetcher. A non-US listing is a successful
// fetch with a gap note, never a failure: those securities file with
// SEDAR or their local regulator, not the SEC.
func (f *EDGARFetcher) Fetch(ctx context.Context, subject models.Subject, window time.Duration, useCache bool) models.FetchResult {
	if nonUSSuffixes[subject.Suffix()] {
		logger.Info("non-US listing, skipping EDGAR", zap.String("symbol", subject.Symbol))
		note := "No SEC filings (non-US listed security)"
		return models.FetchResult{
			Source:  f.Name(),
			Status:  models.FetchOK,
			GapNote: note,
			Filings: &models.FilingSet{
				FetchedAt: f.now().UTC(),
				Symbol:    subject.Symbol,
				USListed:  false,
				Note:      note,
			},
		}
	}

	if useCache {
		if set, ok := cache.ReadAs[models.FilingSet](f.store, subject, f.Name(), f.ttl); ok {
			logger.Info("filings cache hit", zap.String("symbol", subject.Symbol))
			return models.FetchResult{Source: f.Name(), Status: models.FetchOK, GapNote: set.Note, Filings: set}
		}
	}

	logger.Info("fetching SEC filings", zap.String("symbol", subject.Symbol))

	set, err := f.fetchFilings(ctx, subject, window, useCache)
	if err != nil {
		return models.FailedResult(f.Name(), err)
	}

	if err := f.store.Write(subject, f.Name(), set); err != nil {
		logger.Warn("failed to cache filings", zap.Error(err))
	}
	return models.FetchResult{Source: f.Name(), Status: models.FetchOK, GapNote: set.Note, Filings: set}
}

func (f *EDGARFetcher) fetchFilings(ctx context.Context, subject models.Subject, window time.Duration, useCache bool) (*models.FilingSet, error) {
	set := &models.FilingSet{
		FetchedAt: f.now().UTC(),
		Symbol:    subject.Symbol,
		USListed:  true,
	}

	cik, found, err := f.resolveCIK(ctx, subject, useCache)
	if err != nil {
		return nil, err
	}
	if !found {
		set.Note = fmt.Sprintf("No SEC filings found for %q. If this is a non-US listed security, this is expected.", subject.Symbol)
		return set, nil
	}

	filings, err := f.recentFilings(ctx, cik, window)
	if err != nil {
		return nil, err
	}
	set.Filings = filings

	if len(set.Filings) == 0 {
		days := int(window.Hours() / 24)
		set.Note = fmt.Sprintf("No recent filings in the last %d days.", days)
	}

	logger.Debug("filings fetched",
		zap.String("symbol", subject.Symbol),
		zap.Int64("cik", cik),
		zap.Int("count", len(set.Filings)),
	)
	return set, nil
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// resolveCIK maps the subject's root symbol to an EDGAR CIK. The
// company tickers file is cached under a fixed meta key with its own
// 24h TTL since it changes rarely.
func (f *EDGARFetcher) resolveCIK(ctx context.Context, subject models.Subject, useCache bool) (int64, bool, error) {
	metaSubject := models.NewSubject(tickersCacheKey)

	var table map[string]tickerEntry
	if useCache {
		if t, hit := cache.ReadAs[map[string]tickerEntry](f.store, metaSubject, tickersCacheSrc, tickersCacheTTL); hit {
			table = *t
		}
	}

	if table == nil {
		if err := f.getJSON(ctx, f.tickersURL, &table); err != nil {
			return 0, false, fmt.Errorf("failed to fetch company tickers: %w", err)
		}
		if err := f.store.Write(metaSubject, tickersCacheSrc, table); err != nil {
			logger.Warn("failed to cache company tickers", zap.Error(err))
		}
	}

	root := subject.Root()
	for _, entry := range table {
		if strings.EqualFold(entry.Ticker, root) {
			return entry.CIK, true, nil
		}
	}
	logger.Debug("symbol not in EDGAR company list", zap.String("symbol", root))
	return 0, false, nil
}

type submissionsResponse struct {
	Filings struct {
		Recent struct {
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			AccessionNumber []string `json:"accessionNumber"`
			PrimaryDocDesc  []string `json:"primaryDocDescription"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// recentFilings filters the submissions feed to annual, quarterly and
// event disclosures inside the window, pulling plain text for 8-Ks.
func (f *EDGARFetcher) recentFilings(ctx context.Context, cik int64, window time.Duration) ([]models.FilingRecord, error) {
	u := fmt.Sprintf("%s/CIK%010d.json", f.submissionsURL, cik)

	var data submissionsResponse
	if err := f.getJSON(ctx, u, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	now := f.now().UTC()
	from := now.Add(-window).Format("2006-01-02")
	to := now.Format("2006-01-02")

	recent := data.Filings.Recent
	var filings []models.FilingRecord
	for i, form := range recent.Form {
		if !targetForms[form] {
			continue
		}
		if i >= len(recent.FilingDate) || i >= len(recent.AccessionNumber) {
			break
		}
		date := recent.FilingDate[i]
		if date < from || date > to {
			continue
		}

		accNo := recent.AccessionNumber[i]
		noDashes := strings.ReplaceAll(accNo, "-", "")
		record := models.FilingRecord{
			FormType:   form,
			FilingDate: date,
			URL:        fmt.Sprintf("%s/%d/%s/%s-index.htm", f.archivesURL, cik, noDashes, accNo),
		}
		if i < len(recent.PrimaryDocDesc) {
			record.Description = recent.PrimaryDocDesc[i]
		}

		if record.IsEventDisclosure() && i < len(recent.PrimaryDocument) {
			record.Content = f.eventDisclosureText(ctx, cik, accNo, recent.PrimaryDocument[i])
		}
		filings = append(filings, record)
	}
	return filings, nil
}

// eventDisclosureText fetches the primary document of an 8-K and
// returns its HTML-stripped text, capped. 8-Ks are short material
// event notices that fit comfortably in the context bundle. Any
// failure returns empty; the filing metadata still goes in.
func (f *EDGARFetcher) eventDisclosureText(ctx context.Context, cik int64, accNo, primaryDoc string) string {
	if primaryDoc == "" {
		return ""
	}

	noDashes := strings.ReplaceAll(accNo, "-", "")
	u := fmt.Sprintf("%s/%d/%s/%s", f.archivesURL, cik, noDashes, primaryDoc)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Debug("could not fetch 8-K document", zap.String("url", u), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(stripHTML(string(raw))), " ")
	return capText(text, eventDisclosureContentCap)
}

// capText bounds s to limit bytes without splitting a multi-byte rune
func capText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func (f *EDGARFetcher) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	entityRepl    = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&nbsp;", " ",
		"&#39;", "'",
		"&quot;", `"`,
	)
)

func stripHTML(html string) string {
	html = scriptStyleRe.ReplaceAllString(html, " ")
	html = tagRe.ReplaceAllString(html, " ")
	return entityRepl.Replace(html)
}
