package fetch

import (
	"context"
	"time"

	"github.com/selivandex/stockbrief/pkg/models"
)

// Fetcher is the single capability every data source implements. Fetch
// must always return a well-formed FetchResult: transport, auth, and
// rate-limit problems are encoded as a failed result, never raised past
// the fetcher boundary. "No data for this subject" is a successful
// result with a gap note.
type Fetcher interface {
	// Name returns the fetcher's source name (models.Source*)
	Name() string

	// Fetch retrieves and normalizes data for the subject over the
	// lookback window. When useCache is false the cache read is skipped
	// but a fresh result is still written back.
	Fetch(ctx context.Context, subject models.Subject, window time.Duration, useCache bool) models.FetchResult
}
