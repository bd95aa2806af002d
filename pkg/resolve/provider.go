package resolve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultRequestTimeout bounds one provider call so a dead mirror cannot
// stall the whole chain.
const DefaultRequestTimeout = 4 * time.Second

func newProviderHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getJSON issues a single GET and decodes the JSON body into v. Any network
// error, non-200 status or decode failure reports false; callers turn that
// into an Absent result.
func getJSON(ctx context.Context, client *http.Client, reqURL string, v any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false
	}

	return true
}

// hostLabel extracts a short provider label from a base URL for names and metrics.
func hostLabel(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return strings.TrimPrefix(base, "https://")
	}
	return u.Host
}
