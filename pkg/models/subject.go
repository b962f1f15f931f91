package models

import "strings"

// Subject identifies the security under analysis for one run.
// The symbol may carry an exchange suffix (e.g. "SHOP.TO").
type Subject struct {
	Symbol string `json:"symbol"`
}

// NewSubject normalizes a raw ticker string into a Subject
func NewSubject(raw string) Subject {
	return Subject{Symbol: strings.ToUpper(strings.TrimSpace(raw))}
}

// Root returns the symbol without its exchange suffix ("SHOP.TO" -> "SHOP")
func (s Subject) Root() string {
	if i := strings.Index(s.Symbol, "."); i > 0 {
		return s.Symbol[:i]
	}
	return s.Symbol
}

// Suffix returns the exchange suffix, or "" for plain symbols
func (s Subject) Suffix() string {
	parts := strings.Split(s.Symbol, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-1]
}

// SafeKey returns a filesystem-safe form of the symbol ("SHOP.TO" -> "SHOP_TO")
func (s Subject) SafeKey() string {
	return strings.ReplaceAll(s.Symbol, ".", "_")
}

func (s Subject) String() string {
	return s.Symbol
}
