package resolve

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// pipedStreamsResponse is the mirror API's "streams for video ID" payload,
// reduced to the audio list.
type pipedStreamsResponse struct {
	AudioStreams []pipedStream `json:"audioStreams"`
}

type pipedStream struct {
	URL       string `json:"url"`
	Bitrate   int    `json:"bitrate"`
	Itag      int    `json:"itag"`
	MimeType  string `json:"mimeType"`
	Format    string `json:"format"`
	VideoOnly bool   `json:"videoOnly"`
}

// PipedProvider is a client for one Piped-shaped mirror instance.
type PipedProvider struct {
	base   string
	client *http.Client
}

// NewPipedProvider creates a client for the mirror at the given base URL.
func NewPipedProvider(base string, timeout time.Duration) *PipedProvider {
	return &PipedProvider{
		base:   base,
		client: newProviderHTTPClient(timeout),
	}
}

// Name identifies the mirror instance in logs and metrics.
func (p *PipedProvider) Name() string {
	return "piped:" + hostLabel(p.base)
}

// Fetch returns the mirror's candidate audio streams for the video, or an
// absent result on any failure.
func (p *PipedProvider) Fetch(ctx context.Context, videoID string) Result {
	reqURL := fmt.Sprintf("%s/streams/%s", p.base, videoID)

	var payload pipedStreamsResponse
	if !getJSON(ctx, p.client, reqURL, &payload) {
		return Absent()
	}

	streams := make([]Descriptor, 0, len(payload.AudioStreams))
	for _, s := range payload.AudioStreams {
		if s.URL == "" || s.VideoOnly {
			continue
		}
		streams = append(streams, Descriptor{
			URL:       s.URL,
			Bitrate:   s.Bitrate,
			Itag:      s.Itag,
			MimeType:  s.MimeType,
			Transport: ClassifyTransport(s.URL, s.MimeType),
		})
	}

	if len(streams) == 0 {
		return Absent()
	}

	return Result{Streams: streams, OK: true}
}
