// Package search wraps the extractor's search capability and maps raw
// entries to normalized song summaries for the API's listing endpoints.
package search

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"tunebridge/internal/core"
	"tunebridge/internal/ytdlp"
	"tunebridge/pkg/fuzzy"
	"tunebridge/pkg/videoid"
)

const (
	// UnknownTitle is used when the extractor reports no title.
	UnknownTitle = "Unknown"
	// UnknownArtist is used when the extractor reports no uploader.
	UnknownArtist = "Unknown Artist"

	watchURLFormat  = "https://www.youtube.com/watch?v=%s"
	thumbnailFormat = "https://img.youtube.com/vi/%s/hqdefault.jpg"
)

// Extractor is the flat-extraction capability the adapter is built on.
type Extractor interface {
	Search(ctx context.Context, query string, limit int) ([]ytdlp.Entry, error)
	Lookup(ctx context.Context, videoURL string) (*ytdlp.Entry, error)
}

// Service implements core.SearchService.
type Service struct {
	config     *core.SearchConfig
	extractor  Extractor
	metadata   core.MetadataProvider
	normalizer *fuzzy.Normalizer
	logger     *zap.Logger
}

// NewService creates a search adapter. metadata may be nil when the
// commercial metadata API is not configured.
func NewService(config *core.SearchConfig, extractor Extractor, metadata core.MetadataProvider, logger *zap.Logger) *Service {
	return &Service{
		config:     config,
		extractor:  extractor,
		metadata:   metadata,
		normalizer: fuzzy.NewNormalizer(),
		logger:     logger,
	}
}

// Search resolves a query to song summaries. A query that is itself a video
// URL becomes a single-item lookup; a commercial track link is translated to
// "title artist" through the metadata provider first.
func (s *Service) Search(ctx context.Context, query string) ([]core.SongSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", core.ErrInvalidInput)
	}

	if strings.Contains(query, "spotify.com") {
		if s.metadata == nil {
			return nil, fmt.Errorf("%w: metadata provider not configured", core.ErrUpstreamMetadata)
		}
		meta, err := s.metadata.TrackQuery(ctx, query)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("metadata lookup",
			zap.String("title", meta.Title),
			zap.String("artist", meta.Artist))
		query = meta.Query
	}

	if videoid.IsVideoURL(query) {
		entry, err := s.extractor.Lookup(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("lookup failed: %w", err)
		}
		return []core.SongSummary{s.toSummary(*entry)}, nil
	}

	entries, err := s.extractor.Search(ctx, query, s.config.Limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return s.summarize(entries), nil
}

// Popular returns results for a rotating trending query.
func (s *Service) Popular(ctx context.Context) ([]core.SongSummary, error) {
	query := pick(s.config.TrendingQueries)
	entries, err := s.extractor.Search(ctx, query, s.config.PopularLimit)
	if err != nil {
		return nil, fmt.Errorf("popular fetch failed: %w", err)
	}
	return s.summarize(entries), nil
}

// Recommendations returns results for a rotating seed query, along with the
// query that was picked.
func (s *Service) Recommendations(ctx context.Context) (string, []core.SongSummary, error) {
	query := pick(s.config.SeedQueries)
	entries, err := s.extractor.Search(ctx, query, s.config.RecommendLimit)
	if err != nil {
		return "", nil, fmt.Errorf("recommendations failed: %w", err)
	}
	return query, s.summarize(entries), nil
}

func (s *Service) summarize(entries []ytdlp.Entry) []core.SongSummary {
	results := make([]core.SongSummary, 0, len(entries))
	for _, entry := range entries {
		if !s.relevant(entry) {
			continue
		}
		results = append(results, s.toSummary(entry))
	}
	return results
}

// relevant applies the configured result filters. The keyword and
// Latin-script heuristics are independent toggles, both off by default.
func (s *Service) relevant(entry ytdlp.Entry) bool {
	if s.config.KeywordFilter {
		if !s.normalizer.ContainsAny(entry.Title, s.config.MusicKeywords) &&
			!s.normalizer.ContainsAny(entry.Artist(), s.config.MusicKeywords) {
			return false
		}
	}
	if s.config.LatinTitleFilter && !fuzzy.ContainsLatin(entry.Title) {
		return false
	}
	return true
}

func (s *Service) toSummary(entry ytdlp.Entry) core.SongSummary {
	title := entry.Title
	if title == "" {
		title = UnknownTitle
	}

	artist := entry.Artist()
	if artist == "" {
		artist = UnknownArtist
	}

	thumbnail := entry.Thumbnail
	if thumbnail == "" && entry.ID != "" {
		thumbnail = fmt.Sprintf(thumbnailFormat, entry.ID)
	}

	var watchURL string
	if entry.ID != "" {
		watchURL = fmt.Sprintf(watchURLFormat, entry.ID)
	}

	return core.SongSummary{
		Title:     title,
		Artist:    artist,
		Thumbnail: thumbnail,
		URL:       watchURL,
	}
}

// pick rotates the listing queries. The top-level rand source is internally
// locked, so concurrent handler goroutines can share it.
func pick(queries []string) string {
	if len(queries) == 0 {
		return ""
	}
	return queries[rand.Intn(len(queries))] //nolint:gosec // Query rotation doesn't require crypto-secure randomness
}
