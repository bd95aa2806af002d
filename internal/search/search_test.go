package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"tunebridge/internal/core"
	"tunebridge/internal/ytdlp"
)

type fakeExtractor struct {
	searchEntries []ytdlp.Entry
	searchErr     error
	lookupEntry   *ytdlp.Entry
	lookupErr     error

	searchCalls int
	lookupCalls int
	lastQuery   string
	lastLimit   int
}

func (f *fakeExtractor) Search(_ context.Context, query string, limit int) ([]ytdlp.Entry, error) {
	f.searchCalls++
	f.lastQuery = query
	f.lastLimit = limit
	return f.searchEntries, f.searchErr
}

func (f *fakeExtractor) Lookup(_ context.Context, videoURL string) (*ytdlp.Entry, error) {
	f.lookupCalls++
	f.lastQuery = videoURL
	return f.lookupEntry, f.lookupErr
}

type fakeMetadata struct {
	meta *core.TrackMetadata
	err  error
}

func (f *fakeMetadata) TrackQuery(_ context.Context, _ string) (*core.TrackMetadata, error) {
	return f.meta, f.err
}

func testConfig() *core.SearchConfig {
	cfg := core.DefaultConfig().Search
	return &cfg
}

func TestSearch_KeywordQuery(t *testing.T) {
	ext := &fakeExtractor{searchEntries: []ytdlp.Entry{
		{ID: "abc123", Title: "Some Song", Uploader: "Some Artist", Thumbnail: "https://thumbs/abc123.jpg"},
		{ID: "def456", Title: ""},
	}}
	svc := NewService(testConfig(), ext, nil, zap.NewNop())

	results, err := svc.Search(context.Background(), "some song")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if ext.searchCalls != 1 || ext.lookupCalls != 0 {
		t.Fatalf("expected one keyword search, got search=%d lookup=%d", ext.searchCalls, ext.lookupCalls)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	first := results[0]
	if first.Title != "Some Song" || first.Artist != "Some Artist" {
		t.Errorf("unexpected first result: %+v", first)
	}
	if first.URL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("watch URL = %q", first.URL)
	}
	if first.Thumbnail != "https://thumbs/abc123.jpg" {
		t.Errorf("provider thumbnail not kept: %q", first.Thumbnail)
	}

	second := results[1]
	if second.Title != UnknownTitle || second.Artist != UnknownArtist {
		t.Errorf("defaults not applied: %+v", second)
	}
	if second.Thumbnail != "https://img.youtube.com/vi/def456/hqdefault.jpg" {
		t.Errorf("derived thumbnail = %q", second.Thumbnail)
	}
}

func TestSearch_VideoURLBecomesLookup(t *testing.T) {
	ext := &fakeExtractor{lookupEntry: &ytdlp.Entry{
		ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up", Uploader: "Rick Astley",
	}}
	svc := NewService(testConfig(), ext, nil, zap.NewNop())

	results, err := svc.Search(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if ext.lookupCalls != 1 || ext.searchCalls != 0 {
		t.Fatalf("expected single lookup, got search=%d lookup=%d", ext.searchCalls, ext.lookupCalls)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want single-item list", len(results))
	}
	if results[0].URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("URL = %q", results[0].URL)
	}
}

func TestSearch_SpotifyLinkUsesMetadata(t *testing.T) {
	ext := &fakeExtractor{searchEntries: []ytdlp.Entry{{ID: "abc", Title: "Song"}}}
	meta := &fakeMetadata{meta: &core.TrackMetadata{Query: "Song Artist", Title: "Song", Artist: "Artist"}}
	svc := NewService(testConfig(), ext, meta, zap.NewNop())

	_, err := svc.Search(context.Background(), "https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if ext.lastQuery != "Song Artist" {
		t.Errorf("extractor queried with %q, want metadata-derived query", ext.lastQuery)
	}
}

func TestSearch_SpotifyLinkWithoutProvider(t *testing.T) {
	svc := NewService(testConfig(), &fakeExtractor{}, nil, zap.NewNop())

	_, err := svc.Search(context.Background(), "https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT")
	if !errors.Is(err, core.ErrUpstreamMetadata) {
		t.Errorf("error = %v, want ErrUpstreamMetadata", err)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewService(testConfig(), &fakeExtractor{}, nil, zap.NewNop())

	_, err := svc.Search(context.Background(), "   ")
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestSearch_KeywordFilter(t *testing.T) {
	cfg := testConfig()
	cfg.KeywordFilter = true

	ext := &fakeExtractor{searchEntries: []ytdlp.Entry{
		{ID: "a", Title: "Great Song (Official Audio)", Uploader: "Band"},
		{ID: "b", Title: "How to fix a sink", Uploader: "DIY Guy"},
	}}
	svc := NewService(cfg, ext, nil, zap.NewNop())

	results, err := svc.Search(context.Background(), "great")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Great Song (Official Audio)" {
		t.Errorf("keyword filter kept %+v", results)
	}
}

func TestSearch_LatinTitleFilter(t *testing.T) {
	cfg := testConfig()
	cfg.LatinTitleFilter = true

	ext := &fakeExtractor{searchEntries: []ytdlp.Entry{
		{ID: "a", Title: "YOASOBI 夜に駆ける", Uploader: "YOASOBI"},
		{ID: "b", Title: "夜に駆ける", Uploader: "YOASOBI"},
	}}
	svc := NewService(cfg, ext, nil, zap.NewNop())

	results, err := svc.Search(context.Background(), "yoasobi")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "YOASOBI 夜に駆ける" {
		t.Errorf("latin filter kept %+v", results)
	}
}

func TestPopularAndRecommendations(t *testing.T) {
	cfg := testConfig()
	ext := &fakeExtractor{searchEntries: []ytdlp.Entry{{ID: "a", Title: "Hit"}}}
	svc := NewService(cfg, ext, nil, zap.NewNop())

	if _, err := svc.Popular(context.Background()); err != nil {
		t.Fatalf("Popular() error: %v", err)
	}
	if ext.lastLimit != cfg.PopularLimit {
		t.Errorf("Popular() limit = %d, want %d", ext.lastLimit, cfg.PopularLimit)
	}
	if !containsString(cfg.TrendingQueries, ext.lastQuery) {
		t.Errorf("Popular() query %q not from trending list", ext.lastQuery)
	}

	query, results, err := svc.Recommendations(context.Background())
	if err != nil {
		t.Fatalf("Recommendations() error: %v", err)
	}
	if !containsString(cfg.SeedQueries, query) {
		t.Errorf("Recommendations() query %q not from seed list", query)
	}
	if ext.lastLimit != cfg.RecommendLimit {
		t.Errorf("Recommendations() limit = %d, want %d", ext.lastLimit, cfg.RecommendLimit)
	}
	if len(results) != 1 {
		t.Errorf("Recommendations() results = %d, want 1", len(results))
	}
}

func TestPickConcurrent(t *testing.T) {
	// The listing endpoints rotate queries from concurrent handler
	// goroutines; picking must stay safe without external locking.
	queries := []string{"Top hits", "Trending songs", "Lo-fi beats"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if q := pick(queries); !containsString(queries, q) {
					t.Errorf("pick() = %q, not from the query list", q)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
