package exercises

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/coocood/freecache"
)

const searchLimit = 25

// Remote is the catalog API surface the service consumes.
type Remote interface {
	Search(ctx context.Context, q string, limit int) ([]string, error)
}

// CustomSource lists a user's own exercise names matching a query
// (implemented by the history store).
type CustomSource interface {
	CustomExerciseNames(ctx context.Context, userID int, query string, limit int) ([]string, error)
}

// Result splits search hits into the user's custom exercises and catalog
// entries.
type Result struct {
	Custom   []string `json:"custom"`
	Database []string `json:"database"`
}

// Service answers exercise searches: custom names from the user's history,
// catalog names from the remote API with a freecache layer in front, and
// the bundled SQLite catalog when the network fails. Debouncing is the
// client's concern, not this service's.
type Service struct {
	remote Remote
	local  *LocalCatalog
	custom CustomSource
	cache  *freecache.Cache
	ttl    int
	log    *slog.Logger
}

// NewService creates the search service. remote may be nil (local-only
// mode); cacheSizeMB <= 0 disables the cache.
func NewService(remote Remote, local *LocalCatalog, custom CustomSource, cacheSizeMB, ttlSeconds int, log *slog.Logger) *Service {
	s := &Service{
		remote: remote,
		local:  local,
		custom: custom,
		ttl:    ttlSeconds,
		log:    log,
	}
	if cacheSizeMB > 0 {
		s.cache = freecache.NewCache(cacheSizeMB * 1024 * 1024)
	}
	return s
}

// Search runs the two-sided lookup. Catalog failures degrade to the local
// fallback rather than erroring; only the custom-name query can fail.
func (s *Service) Search(ctx context.Context, userID int, query string) (Result, error) {
	var result Result

	custom, err := s.custom.CustomExerciseNames(ctx, userID, query, searchLimit)
	if err != nil {
		return Result{}, err
	}
	result.Custom = custom

	result.Database = s.catalogSearch(ctx, query)
	return result, nil
}

func (s *Service) catalogSearch(ctx context.Context, query string) []string {
	if names, ok := s.cacheGet(query); ok {
		return names
	}

	if s.remote != nil {
		names, err := s.remote.Search(ctx, query, searchLimit)
		if err == nil {
			s.cachePut(query, names)
			return names
		}
		s.log.Warn("catalog search failed, using local fallback", "query", query, "error", err)
	}

	names, err := s.local.Search(ctx, query, searchLimit)
	if err != nil {
		s.log.Warn("local catalog search failed", "query", query, "error", err)
		return nil
	}
	return names
}

func (s *Service) cacheGet(query string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get([]byte(query))
	if err != nil {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, false
	}
	return names, true
}

func (s *Service) cachePut(query string, names []string) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(names)
	if err != nil {
		return
	}
	_ = s.cache.Set([]byte(query), data, s.ttl)
}
