package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunebridge/internal/core"
)

type fakeProvider struct {
	name  string
	res   Result
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(_ context.Context, _ string) Result {
	f.calls++
	return f.res
}

type fakeExtractor struct {
	formats []Descriptor
	err     error
	calls   int
}

func (f *fakeExtractor) ExtractFormats(_ context.Context, _ string) ([]Descriptor, error) {
	f.calls++
	return f.formats, f.err
}

func testPolicy() Policy {
	return Policy{
		Mode:           ModeItag,
		PrimaryItags:   []int{249, 250},
		FallbackItags:  []int{251},
		BitrateCeiling: 128_000,
	}
}

func TestChainResolve_FirstProviderWins(t *testing.T) {
	p1 := &fakeProvider{name: "piped:one", res: Result{
		Streams: []Descriptor{
			{URL: "https://x/videoplayback?one", Itag: 250, Bitrate: 70_000, Transport: TransportProgressive},
		},
		OK: true,
	}}
	p2 := &fakeProvider{name: "piped:two", res: Result{
		Streams: []Descriptor{
			{URL: "https://x/videoplayback?two", Itag: 250, Bitrate: 70_000, Transport: TransportProgressive},
		},
		OK: true,
	}}

	chain := NewChain([]Provider{p1, p2}, nil, testPolicy(), 0, zap.NewNop())

	url, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if url != "https://x/videoplayback?one" {
		t.Errorf("Resolve() = %q, want first provider's URL", url)
	}
	if p2.calls != 0 {
		t.Errorf("second provider fetched %d times after first succeeded, want 0", p2.calls)
	}
}

func TestChainResolve_PreferredTierAcrossProviders(t *testing.T) {
	// Provider 1 only has the fallback-tier tag, provider 2 has the
	// preferred tag. The preferred tier must win even though provider 1
	// comes first in the chain order.
	p1 := &fakeProvider{name: "piped:one", res: Result{
		Streams: []Descriptor{
			{URL: "https://x/fallback", Itag: 251, Bitrate: 160_000, Transport: TransportProgressive},
		},
		OK: true,
	}}
	p2 := &fakeProvider{name: "piped:two", res: Result{
		Streams: []Descriptor{
			{URL: "https://x/preferred", Itag: 250, Bitrate: 70_000, Transport: TransportProgressive},
		},
		OK: true,
	}}

	chain := NewChain([]Provider{p1, p2}, nil, testPolicy(), 0, zap.NewNop())

	url, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if url != "https://x/preferred" {
		t.Errorf("Resolve() = %q, want preferred-tier URL from provider 2", url)
	}
}

func TestChainResolve_FallbackTierAfterAllProviders(t *testing.T) {
	// Only a fallback-tier descriptor exists anywhere. It is returned, but
	// only after every provider was consulted for the preferred tier, and
	// each provider is fetched exactly once thanks to the per-resolution memo.
	p1 := &fakeProvider{name: "piped:one", res: Absent()}
	p2 := &fakeProvider{name: "piped:two", res: Result{
		Streams: []Descriptor{
			{URL: "https://x/videoplayback?opus160", Itag: 251, Bitrate: 160_000, Transport: TransportProgressive},
		},
		OK: true,
	}}

	chain := NewChain([]Provider{p1, p2}, nil, testPolicy(), 0, zap.NewNop())

	url, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if url != "https://x/videoplayback?opus160" {
		t.Errorf("Resolve() = %q, want fallback-tier URL", url)
	}
	if p1.calls != 1 || p2.calls != 1 {
		t.Errorf("provider fetch counts = %d, %d; want exactly 1 each", p1.calls, p2.calls)
	}
}

func TestChainResolve_SegmentedNeverReturned(t *testing.T) {
	p1 := &fakeProvider{name: "piped:one", res: Result{
		Streams: []Descriptor{
			{URL: "https://x/stream.m3u8", Itag: 250, Bitrate: 70_000, Transport: ClassifyTransport("https://x/stream.m3u8", "")},
		},
		OK: true,
	}}

	chain := NewChain([]Provider{p1}, nil, testPolicy(), 0, zap.NewNop())

	_, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, core.ErrNoStreamAvailable) {
		t.Fatalf("Resolve() error = %v, want ErrNoStreamAvailable", err)
	}
}

func TestChainResolve_ExtractionFallback(t *testing.T) {
	p1 := &fakeProvider{name: "piped:one", res: Absent()}
	ext := &fakeExtractor{formats: []Descriptor{
		{URL: "https://cdn/low", Bitrate: 64_000, Transport: TransportProgressive},
		{URL: "https://cdn/high", Bitrate: 160_000, Transport: TransportSegmented},
	}}

	chain := NewChain([]Provider{p1}, ext, testPolicy(), 0, zap.NewNop())

	url, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	// Extraction is best-effort: best declared bitrate wins and the safety
	// policy's transport rule does not apply on this path.
	if url != "https://cdn/high" {
		t.Errorf("Resolve() = %q, want best-by-bitrate extraction URL", url)
	}
	if ext.calls != 1 {
		t.Errorf("extractor called %d times, want 1", ext.calls)
	}
}

func TestChainResolve_Exhausted(t *testing.T) {
	p1 := &fakeProvider{name: "piped:one", res: Absent()}
	p2 := &fakeProvider{name: "piped:two", res: Absent()}
	ext := &fakeExtractor{err: errors.New("extraction failed")}

	chain := NewChain([]Provider{p1, p2}, ext, testPolicy(), 0, zap.NewNop())

	url, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, core.ErrNoStreamAvailable) {
		t.Fatalf("Resolve() error = %v, want ErrNoStreamAvailable", err)
	}
	if url != "" {
		t.Errorf("Resolve() returned URL %q alongside exhaustion", url)
	}
}

func TestChainResolve_Idempotent(t *testing.T) {
	p1 := &fakeProvider{name: "piped:one", res: Result{
		Streams: []Descriptor{
			{URL: "https://x/videoplayback?a", Itag: 249, Bitrate: 50_000, Transport: TransportProgressive},
			{URL: "https://x/videoplayback?b", Itag: 250, Bitrate: 70_000, Transport: TransportProgressive},
		},
		OK: true,
	}}

	chain := NewChain([]Provider{p1}, nil, testPolicy(), 0, zap.NewNop())

	first, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("first Resolve() error: %v", err)
	}
	second, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("second Resolve() error: %v", err)
	}
	if first != second {
		t.Errorf("Resolve() not idempotent: %q then %q", first, second)
	}
}

func TestChainResolve_RecordsProviderOutcomes(t *testing.T) {
	rec := &fakeRecorder{outcomes: map[string]string{}}
	p1 := &fakeProvider{name: "piped:one", res: Absent()}
	p2 := &fakeProvider{name: "invidious:two", res: Result{
		Streams: []Descriptor{
			{URL: "https://x/videoplayback?ok", Itag: 250, Bitrate: 70_000, Transport: TransportProgressive},
		},
		OK: true,
	}}

	chain := NewChain([]Provider{p1, p2}, nil, testPolicy(), 0, zap.NewNop()).WithRecorder(rec)

	if _, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if rec.outcomes["piped:one"] != "absent" {
		t.Errorf("recorded %q for failed provider, want absent", rec.outcomes["piped:one"])
	}
	if rec.outcomes["invidious:two"] != "ok" {
		t.Errorf("recorded %q for successful provider, want ok", rec.outcomes["invidious:two"])
	}
}

type fakeRecorder struct {
	outcomes map[string]string
}

func (f *fakeRecorder) RecordProviderFetch(provider, status string) {
	f.outcomes[provider] = status
}

// blockingProvider never answers on its own; it only returns once the
// resolution context is cancelled.
type blockingProvider struct {
	name string
}

func (b *blockingProvider) Name() string { return b.name }

func (b *blockingProvider) Fetch(ctx context.Context, _ string) Result {
	<-ctx.Done()
	return Absent()
}

func TestChainResolve_DeadlineBoundsChain(t *testing.T) {
	p1 := &blockingProvider{name: "piped:stalled"}

	chain := NewChain([]Provider{p1}, nil, testPolicy(), 50*time.Millisecond, zap.NewNop())

	start := time.Now()
	url, err := chain.Resolve(context.Background(), "dQw4w9WgXcQ")
	elapsed := time.Since(start)

	if !errors.Is(err, core.ErrNoStreamAvailable) {
		t.Fatalf("Resolve() error = %v, want ErrNoStreamAvailable", err)
	}
	if url != "" {
		t.Errorf("Resolve() returned URL %q from a stalled provider", url)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Resolve() took %v, the deadline did not cut the chain short", elapsed)
	}
}
