// Package videoid extracts YouTube video identifiers from user-supplied URLs.
package videoid

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"tunebridge/internal/core"
)

// idGrammar is the platform's identifier alphabet. Length is not enforced:
// 11 characters in practice, but the grammar is the only stable contract.
var idGrammar = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// IsVideoURL reports whether the string looks like a YouTube video link,
// in either the watch?v= or the youtu.be short form.
func IsVideoURL(raw string) bool {
	_, err := Extract(raw)
	return err == nil
}

// Extract returns the video identifier from a watch?v= or youtu.be URL.
// The returned error wraps core.ErrInvalidInput when neither form matches;
// callers surface that as a client error, never a server fault.
func Extract(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", core.ErrInvalidInput)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a URL", core.ErrInvalidInput, raw)
	}

	// Scheme-less input like "youtu.be/ID" parses with an empty host.
	if u.Host == "" && !strings.Contains(raw, "://") {
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a URL", core.ErrInvalidInput, raw)
		}
	}

	host := strings.ToLower(u.Hostname())

	// Short links carry the ID as the first path segment.
	if host == "youtu.be" {
		id := strings.Trim(u.Path, "/")
		if i := strings.IndexByte(id, '/'); i >= 0 {
			id = id[:i]
		}
		return validate(id)
	}

	switch host {
	case "youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return validate(id)
		}
		// Embed and shorts paths carry the ID as the last path segment.
		if strings.HasPrefix(u.Path, "/embed/") || strings.HasPrefix(u.Path, "/shorts/") {
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 {
				return validate(parts[1])
			}
		}
		return "", fmt.Errorf("%w: no video ID in %q", core.ErrInvalidInput, raw)
	}

	return "", fmt.Errorf("%w: %q is not a YouTube video URL", core.ErrInvalidInput, raw)
}

func validate(id string) (string, error) {
	if id == "" || !idGrammar.MatchString(id) {
		return "", fmt.Errorf("%w: malformed video ID %q", core.ErrInvalidInput, id)
	}
	return id, nil
}
