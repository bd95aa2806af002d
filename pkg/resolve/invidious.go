package resolve

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// invidiousVideoResponse is the unofficial API's "video" payload, reduced to
// the adaptive formats list. Field names differ from the mirror shape: the
// MIME type lives under "type" and bitrate/itag are strings.
type invidiousVideoResponse struct {
	AdaptiveFormats []invidiousFormat `json:"adaptiveFormats"`
}

type invidiousFormat struct {
	URL     string `json:"url"`
	Itag    string `json:"itag"`
	Bitrate string `json:"bitrate"`
	Type    string `json:"type"`
}

// InvidiousProvider is a client for one Invidious-shaped instance, used as
// the fast-fallback API after the mirrors.
type InvidiousProvider struct {
	base   string
	client *http.Client
}

// NewInvidiousProvider creates a client for the instance at the given base URL.
func NewInvidiousProvider(base string, timeout time.Duration) *InvidiousProvider {
	return &InvidiousProvider{
		base:   base,
		client: newProviderHTTPClient(timeout),
	}
}

// Name identifies the instance in logs and metrics.
func (p *InvidiousProvider) Name() string {
	return "invidious:" + hostLabel(p.base)
}

// Fetch returns the instance's audio-only adaptive formats for the video, or
// an absent result on any failure.
func (p *InvidiousProvider) Fetch(ctx context.Context, videoID string) Result {
	reqURL := fmt.Sprintf("%s/api/v1/videos/%s", p.base, videoID)

	var payload invidiousVideoResponse
	if !getJSON(ctx, p.client, reqURL, &payload) {
		return Absent()
	}

	streams := make([]Descriptor, 0, len(payload.AdaptiveFormats))
	for _, f := range payload.AdaptiveFormats {
		if f.URL == "" || !strings.HasPrefix(f.Type, "audio/") {
			continue
		}
		itag, _ := strconv.Atoi(f.Itag)
		bitrate, _ := strconv.Atoi(f.Bitrate)
		streams = append(streams, Descriptor{
			URL:       f.URL,
			Bitrate:   bitrate,
			Itag:      itag,
			MimeType:  f.Type,
			Transport: ClassifyTransport(f.URL, f.Type),
		})
	}

	if len(streams) == 0 {
		return Absent()
	}

	return Result{Streams: streams, OK: true}
}
