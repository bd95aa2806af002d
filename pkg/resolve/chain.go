package resolve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tunebridge/internal/core"
)

// Extractor is the last-resort full-extraction capability (the scraping
// library). Its formats bypass the transport/itag policy: this path is
// best-effort by definition and picks best-by-declared-bitrate.
type Extractor interface {
	ExtractFormats(ctx context.Context, videoID string) ([]Descriptor, error)
}

// Recorder receives per-provider fetch outcomes for metrics. Optional.
type Recorder interface {
	RecordProviderFetch(provider, status string)
}

// Chain probes fast providers in a fixed priority order, one policy tier at a
// time, then falls back to full extraction. The first acceptable stream wins;
// probing is sequential on purpose so a success spares the remaining mirrors.
type Chain struct {
	providers []Provider
	extractor Extractor
	policy    Policy
	deadline  time.Duration
	recorder  Recorder
	logger    *zap.Logger
}

// NewChain creates a resolution chain over the given fast providers.
// A deadline of zero defaults to (len(providers)+1) * DefaultRequestTimeout.
func NewChain(providers []Provider, extractor Extractor, policy Policy, deadline time.Duration, logger *zap.Logger) *Chain {
	if deadline <= 0 {
		deadline = time.Duration(len(providers)+1) * DefaultRequestTimeout
	}
	return &Chain{
		providers: providers,
		extractor: extractor,
		policy:    policy,
		deadline:  deadline,
		logger:    logger,
	}
}

// WithRecorder attaches a metrics recorder and returns the chain.
func (c *Chain) WithRecorder(r Recorder) *Chain {
	c.recorder = r
	return c
}

// Resolve returns the first acceptable direct audio URL for the video, or an
// error wrapping core.ErrNoStreamAvailable once every source is exhausted.
//
// The preferred format tier is scanned across the entire provider list before
// any provider is consulted for the fallback tier. Each provider is fetched
// at most once per resolution; later tiers reuse the memoized responses, so
// the tier ordering costs no extra upstream load and resolving the same video
// against unchanged responses is idempotent.
func (c *Chain) Resolve(ctx context.Context, videoID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	fetched := make([]*Result, len(c.providers))
	fetch := func(i int) Result {
		if fetched[i] == nil {
			res := c.providers[i].Fetch(ctx, videoID)
			fetched[i] = &res
			c.record(c.providers[i].Name(), res)
		}
		return *fetched[i]
	}

	for _, tier := range c.policy.Tiers() {
		for i, p := range c.providers {
			res := fetch(i)
			if !res.OK {
				continue
			}
			best := c.policy.SelectBest(res.Streams, tier)
			if best == nil {
				continue
			}
			c.logger.Debug("stream resolved",
				zap.String("video_id", videoID),
				zap.String("provider", p.Name()),
				zap.Int("itag", best.Itag),
				zap.Int("bitrate", best.Bitrate))
			return best.URL, nil
		}
	}

	if url := c.resolveByExtraction(ctx, videoID); url != "" {
		return url, nil
	}

	c.logger.Info("resolution chain exhausted", zap.String("video_id", videoID))
	return "", fmt.Errorf("%w for video %s", core.ErrNoStreamAvailable, videoID)
}

// resolveByExtraction runs the full extraction and picks the audio format
// with the highest declared bitrate. Safety rules do not apply here.
func (c *Chain) resolveByExtraction(ctx context.Context, videoID string) string {
	if c.extractor == nil {
		return ""
	}

	formats, err := c.extractor.ExtractFormats(ctx, videoID)
	if err != nil {
		c.logger.Warn("full extraction failed",
			zap.String("video_id", videoID),
			zap.Error(err))
		if c.recorder != nil {
			c.recorder.RecordProviderFetch("extraction", "absent")
		}
		return ""
	}
	if c.recorder != nil {
		c.recorder.RecordProviderFetch("extraction", "ok")
	}

	var best *Descriptor
	for i := range formats {
		f := &formats[i]
		if f.URL == "" {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	if best == nil {
		return ""
	}
	return best.URL
}

func (c *Chain) record(provider string, res Result) {
	if c.recorder == nil {
		return
	}
	status := "ok"
	if !res.OK {
		status = "absent"
	}
	c.recorder.RecordProviderFetch(provider, status)
}
