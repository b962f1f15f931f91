package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// Store persists raw fetch results as JSON files keyed by
// (subject, source, UTC day). Staleness is decided from the write
// timestamp stored inside each file, not filesystem metadata, so
// entries stay self-describing when copied around.
type Store struct {
	dir string
	now func() time.Time
}

// envelope wraps a cached payload with its write timestamp
type envelope struct {
	WrittenAt time.Time       `json:"written_at"`
	Payload   json.RawMessage `json:"payload"`
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Path returns the cache file path for a subject and source, dated today (UTC).
// Combined with the TTL check this means entries also expire at day boundaries.
func (s *Store) Path(subject models.Subject, source string) string {
	day := s.now().UTC().Format("2006-01-02")
	name := fmt.Sprintf("%s_%s_%s.json", subject.SafeKey(), source, day)
	return filepath.Join(s.dir, name)
}

// Read returns the cached payload for (subject, source) if an entry exists
// and its age is within ttl. A miss is a normal outcome: missing files,
// undecodable envelopes, and expired entries all return ok=false and
// never an error.
func (s *Store) Read(subject models.Subject, source string, ttl time.Duration) ([]byte, bool) {
	path := s.Path(subject, source)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Debug("cache entry undecodable, treating as miss",
			zap.String("path", filepath.Base(path)),
			zap.Error(err),
		)
		return nil, false
	}

	age := s.now().UTC().Sub(env.WrittenAt)
	if age < 0 || age >= ttl {
		return nil, false
	}

	logger.Debug("cache hit",
		zap.String("subject", subject.Symbol),
		zap.String("source", source),
		zap.Duration("age", age),
	)
	return env.Payload, true
}

// ReadAs reads a cached payload and unmarshals it into T. A payload that
// no longer matches the current schema is treated as a miss so fetchers
// simply refetch instead of erroring on stale shapes.
func ReadAs[T any](s *Store, subject models.Subject, source string, ttl time.Duration) (*T, bool) {
	raw, ok := s.Read(subject, source, ttl)
	if !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Debug("cache payload does not match schema, treating as miss",
			zap.String("source", source),
			zap.Error(err),
		)
		return nil, false
	}
	return &v, true
}

// Write marshals payload into a timestamped envelope and persists it,
// overwriting any existing entry wholesale. Last write wins.
func (s *Store) Write(subject models.Subject, source string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	env := envelope{WrittenAt: s.now().UTC(), Payload: raw}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache envelope: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	path := s.Path(subject, source)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	logger.Debug("cache write",
		zap.String("subject", subject.Symbol),
		zap.String("source", source),
		zap.Int("bytes", len(data)),
	)
	return nil
}
