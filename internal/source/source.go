package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	appLog "weekcal/internal/log"
)

// RetrievalError reports a calendar source that could not be read, either
// over the network or from disk. It is fatal for the run; the caller is
// expected to report it and exit rather than retry.
type RetrievalError struct {
	Location string
	Err      error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("cannot retrieve calendar from %s: %s", Redact(e.Location), e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Loader resolves a calendar location to raw ICS bytes.
type Loader struct {
	client *http.Client
}

// NewLoader creates a Loader whose HTTP fetches are bounded by timeout.
func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Loader{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// IsURL reports whether location should be fetched over HTTP rather than
// read from disk.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Load resolves location to raw calendar bytes. A location starting with
// http:// or https:// is fetched over the network; anything else is read
// as a filesystem path. All failures come back as *RetrievalError.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, &RetrievalError{Location: location, Err: fmt.Errorf("empty source location")}
	}

	if IsURL(location) {
		return l.fetch(ctx, location)
	}
	return l.readFile(location)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RetrievalError{Location: url, Err: err}
	}

	appLog.Info("fetch start", "url", Redact(url))

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &RetrievalError{Location: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RetrievalError{Location: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RetrievalError{Location: url, Err: err}
	}

	appLog.Info("fetch success", "url", Redact(url), "bytes", len(body))
	return body, nil
}

func (l *Loader) readFile(path string) ([]byte, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, &RetrievalError{Location: path, Err: err}
	}
	appLog.Info("file read", "path", path, "bytes", len(body))
	return body, nil
}

// Redact hides sensitive parts of a calendar URL for logging and error
// messages. Subscription URLs frequently embed access tokens in the path
// or query string, so only scheme and host survive. Non-URL locations
// (file paths) are returned unchanged.
func Redact(location string) string {
	if !IsURL(location) {
		return location
	}

	const redactedSuffix = "/...(redacted)"

	// IsURL guarantees a scheme separator; find the next slash after the host.
	j := strings.Index(location, "://") + 3
	for j < len(location) && location[j] != '/' {
		j++
	}

	return location[:j] + redactedSuffix
}
