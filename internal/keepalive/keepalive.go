// Package keepalive keeps the hosting process warm by pinging a configured
// URL on a fixed interval. It shares no state with request handling and its
// failures are logged and swallowed; the loop only stops on shutdown.
package keepalive

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type Pinger struct {
	targetURL string
	interval  time.Duration
	client    *http.Client
	logger    *zap.Logger
}

func NewPinger(targetURL string, interval time.Duration, logger *zap.Logger) *Pinger {
	return &Pinger{
		targetURL: targetURL,
		interval:  interval,
		client:    &http.Client{Timeout: requestTimeout},
		logger:    logger,
	}
}

// Run pings until the context is cancelled. It always returns nil: a failed
// ping is never a reason to take the service down.
func (p *Pinger) Run(ctx context.Context) error {
	if p.targetURL == "" {
		p.logger.Debug("keep-alive disabled, no target URL")
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("keep-alive started",
		zap.String("target", p.targetURL),
		zap.Duration("interval", p.interval))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.targetURL, http.NoBody)
	if err != nil {
		p.logger.Warn("keep-alive request build failed", zap.Error(err))
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("keep-alive ping failed", zap.Error(err))
		return
	}
	_ = resp.Body.Close()

	p.logger.Debug("keep-alive ping", zap.Int("status", resp.StatusCode))
}
