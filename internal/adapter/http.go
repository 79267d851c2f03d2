package adapter

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/remotehub/internal/model"
)

// Some boards reject requests without a browser-like user agent.
const userAgent = "Mozilla/5.0 (compatible; remotehub/1.0;)"

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// do sends req and returns the response only for 2xx statuses. Any other
// status is reported as *model.HTTPError so the retry decorator can inspect it.
// The caller owns the returned body.
func do(client *http.Client, req *http.Request, source string) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", source, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s fetch: unexpected status %d", source, resp.StatusCode),
		}
	}
	return resp, nil
}
