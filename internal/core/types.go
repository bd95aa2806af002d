// Package core holds the shared configuration, error taxonomy and
// collaborator interfaces wired together at startup.
package core

import "context"

// SongSummary is the normalized search result returned by the API.
type SongSummary struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
}

// StreamResolver turns a video identifier into a direct playable audio URL.
type StreamResolver interface {
	Resolve(ctx context.Context, videoID string) (string, error)
}

// SearchService backs the search/popular/recommendations endpoints.
type SearchService interface {
	Search(ctx context.Context, query string) ([]SongSummary, error)
	Popular(ctx context.Context) ([]SongSummary, error)
	Recommendations(ctx context.Context) (string, []SongSummary, error)
}

// TrackMetadata is what the optional metadata provider returns for a track link.
type TrackMetadata struct {
	Query    string
	Title    string
	Artist   string
	Duration int
}

// MetadataProvider resolves a commercial-catalog track link to search metadata.
type MetadataProvider interface {
	TrackQuery(ctx context.Context, trackURL string) (*TrackMetadata, error)
}
