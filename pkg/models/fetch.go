package models

// FetchStatus tags a FetchResult as succeeded or failed
type FetchStatus string

const (
	FetchOK     FetchStatus = "ok"
	FetchFailed FetchStatus = "failed"
)

// Well-known fetcher/source names, used as cache keys and result map keys
const (
	SourcePrice    = "price"
	SourceNews     = "news"
	SourceSocial   = "reddit"
	SourceFilings  = "sec"
	SourceEarnings = "earnings"
)

// FetchResult is the tagged union every fetcher returns. Exactly one payload
// pointer is set when Status is FetchOK; a successful result may still carry
// an empty payload plus a GapNote (source legitimately had no data).
type FetchResult struct {
	Source  string      `json:"source"`
	Status  FetchStatus `json:"status"`
	GapNote string      `json:"gap_note,omitempty"`
	Err     string      `json:"error,omitempty"` // diagnostic, set when failed

	Price    *PriceSnapshot    `json:"price,omitempty"`
	News     *NewsSet          `json:"news,omitempty"`
	Social   *SocialSet        `json:"social,omitempty"`
	Filings  *FilingSet        `json:"filings,omitempty"`
	Earnings *EarningsSnapshot `json:"earnings,omitempty"`
}

// Failed reports whether the fetch itself failed (transport/auth/rate-limit).
// An empty payload with a gap note is not a failure.
func (r FetchResult) Failed() bool {
	return r.Status == FetchFailed
}

// HasGap reports whether the source legitimately returned no data
func (r FetchResult) HasGap() bool {
	return r.Status == FetchOK && r.GapNote != ""
}

// FailedResult builds a well-formed failure for a source
func FailedResult(source string, err error) FetchResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return FetchResult{Source: source, Status: FetchFailed, Err: msg}
}
