// Package ytdlp shells out to the yt-dlp binary for keyword search, single
// video lookup and full format extraction. The binary's internals are opaque;
// this package only shapes its JSON output.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tunebridge/pkg/resolve"
)

const defaultBinary = "yt-dlp"

// Entry is one flat-extraction result (search hit or direct lookup).
type Entry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Uploader  string `json:"uploader"`
	Channel   string `json:"channel"`
	Thumbnail string `json:"thumbnail"`
}

// Artist returns the best available uploader name.
func (e Entry) Artist() string {
	if e.Uploader != "" {
		return e.Uploader
	}
	return e.Channel
}

type extractionInfo struct {
	Formats []extractionFormat `json:"formats"`
}

type extractionFormat struct {
	URL      string  `json:"url"`
	FormatID string  `json:"format_id"`
	ACodec   string  `json:"acodec"`
	VCodec   string  `json:"vcodec"`
	ABR      float64 `json:"abr"`
	TBR      float64 `json:"tbr"`
	Protocol string  `json:"protocol"`
}

// Client invokes yt-dlp. Zero value is not usable; construct with NewClient.
type Client struct {
	binary      string
	cookiesPath string
	logger      *zap.Logger
}

// NewClient creates a yt-dlp client. cookiesPath may be empty.
func NewClient(cookiesPath string, logger *zap.Logger) *Client {
	return &Client{
		binary:      defaultBinary,
		cookiesPath: cookiesPath,
		logger:      logger,
	}
}

// Search runs a flat keyword search and returns up to limit entries.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	target := fmt.Sprintf("ytsearch%d:%s", limit, query)
	entries, err := c.flatExtract(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Lookup resolves a single video URL to its flat metadata entry.
func (c *Client) Lookup(ctx context.Context, videoURL string) (*Entry, error) {
	entries, err := c.flatExtract(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entry for %s", videoURL)
	}
	return &entries[0], nil
}

// ExtractFormats runs the full (non-flat) extraction for the video and maps
// the declared audio-capable formats to stream descriptors for the chain's
// last-resort path.
func (c *Client) ExtractFormats(ctx context.Context, videoID string) ([]resolve.Descriptor, error) {
	videoURL := "https://www.youtube.com/watch?v=" + videoID

	args := c.commonArgs()
	args = append(args, "--no-playlist", videoURL)

	output, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}

	var info extractionInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}

	descs := make([]resolve.Descriptor, 0, len(info.Formats))
	for _, f := range info.Formats {
		if f.URL == "" || f.ACodec == "none" || f.ACodec == "" {
			continue
		}
		descs = append(descs, resolve.Descriptor{
			URL:       f.URL,
			Bitrate:   declaredBitrate(f),
			Itag:      itagFromFormatID(f.FormatID),
			Transport: transportFor(f),
		})
	}

	if len(descs) == 0 {
		return nil, fmt.Errorf("no audio formats for %s", videoID)
	}
	return descs, nil
}

func (c *Client) flatExtract(ctx context.Context, target string) ([]Entry, error) {
	args := c.commonArgs()
	args = append(args, "--flat-playlist", target)

	output, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}

	// One JSON object per line.
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.ID != "" {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func (c *Client) commonArgs() []string {
	args := []string{"--dump-json", "--skip-download", "--no-warnings", "--quiet"}
	if c.cookiesPath != "" {
		args = append(args, "--cookies", c.cookiesPath)
	}
	return args
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.logger.Debug("yt-dlp failed",
				zap.Strings("args", args),
				zap.ByteString("stderr", exitErr.Stderr))
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	return output, nil
}

func declaredBitrate(f extractionFormat) int {
	// abr/tbr are reported in kbps.
	if f.ABR > 0 {
		return int(f.ABR * 1000)
	}
	if f.TBR > 0 {
		return int(f.TBR * 1000)
	}
	return 0
}

func itagFromFormatID(formatID string) int {
	itag, err := strconv.Atoi(formatID)
	if err != nil {
		return 0
	}
	return itag
}

func transportFor(f extractionFormat) resolve.Transport {
	switch f.Protocol {
	case "m3u8", "m3u8_native", "http_dash_segments":
		return resolve.TransportSegmented
	}
	return resolve.ClassifyTransport(f.URL, "")
}
