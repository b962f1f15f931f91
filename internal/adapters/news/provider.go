package news

import (
	"context"

	"github.com/selivandex/stockbrief/pkg/models"
)

// Query carries the search parameters shared by both news providers.
// CompanyName may be empty when the profile lookup failed; providers
// that need it fall back to the bare symbol.
type Query struct {
	From        string // YYYY-MM-DD
	To          string // YYYY-MM-DD
	CompanyName string
}

// Provider fetches raw articles from one news source
type Provider interface {
	Name() string
	Fetch(ctx context.Context, subject models.Subject, q Query) ([]models.NewsItem, error)
}
