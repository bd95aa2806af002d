// Package resolve implements the multi-provider audio stream resolution chain:
// given a video identifier, probe upstream providers in priority order, apply
// the safety policy to their candidate streams, and return the first direct
// URL that qualifies.
package resolve

import (
	"context"
	"strings"
)

// Transport classifies how a stream URL is delivered.
type Transport int

const (
	// TransportProgressive is a single-file URL directly playable without a manifest.
	TransportProgressive Transport = iota
	// TransportSegmented is manifest-based delivery (HLS/DASH), never playable directly.
	TransportSegmented
)

// Descriptor is the normalized view of one candidate audio stream.
type Descriptor struct {
	URL       string
	Bitrate   int // bits per second, 0 when the provider did not report one
	Itag      int // 0 when the provider did not report one
	MimeType  string
	Transport Transport
}

// Result is one provider's answer. Absence (unreachable provider, non-200,
// malformed payload) is a value, not an error: the chain branches on OK and
// moves on, provider failures never propagate as faults.
type Result struct {
	Streams []Descriptor
	OK      bool
}

// Absent is the result for a provider that could not be used.
func Absent() Result {
	return Result{}
}

// Provider is one upstream source of candidate streams for a video ID.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, videoID string) Result
}

// manifestMarkers are URL fragments that betray segmented delivery. Providers
// mislabel segmented streams as direct, so the URL is inspected regardless of
// what the provider's own metadata claims.
var manifestMarkers = []string{".m3u8", "/hls_", ".mpd", "/manifest/", "/api/manifest"}

// manifestMimeTypes are container types that are manifests, not audio.
var manifestMimeTypes = []string{"application/x-mpegurl", "application/vnd.apple.mpegurl", "application/dash+xml"}

// ClassifyTransport derives the transport from the URL and the provider's
// reported MIME type. A stream is segmented if either signal says so; a
// provider's claim of being "direct" is never sufficient on its own.
func ClassifyTransport(url, mimeType string) Transport {
	lower := strings.ToLower(url)
	for _, marker := range manifestMarkers {
		if strings.Contains(lower, marker) {
			return TransportSegmented
		}
	}

	mime := strings.ToLower(mimeType)
	for _, mt := range manifestMimeTypes {
		if strings.HasPrefix(mime, mt) {
			return TransportSegmented
		}
	}

	return TransportProgressive
}
