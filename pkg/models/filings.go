package models

import "time"

// FormEventDisclosure is the only form type whose full text is fetched.
// 8-K filings are short material-event disclosures; 10-K/10-Q metadata only.
const FormEventDisclosure = "8-K"

// FilingRecord represents one regulatory filing
type FilingRecord struct {
	FormType    string `json:"form_type"`
	FilingDate  string `json:"filing_date"` // YYYY-MM-DD
	Description string `json:"description"`
	URL         string `json:"url"`
	Content     string `json:"content,omitempty"` // extracted plaintext, 8-K only
}

// IsEventDisclosure reports whether full text may be attached to this filing
func (f FilingRecord) IsEventDisclosure() bool {
	return f.FormType == FormEventDisclosure
}

// FilingSet is the normalized payload of the filings fetcher
type FilingSet struct {
	FetchedAt time.Time      `json:"fetched_at"`
	Symbol    string         `json:"symbol"`
	Filings   []FilingRecord `json:"filings"`
	USListed  bool           `json:"us_listed"`
	Note      string         `json:"note,omitempty"`
}
