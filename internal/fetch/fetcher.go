// Package fetch retrieves page bodies over plain HTTP. No script execution,
// no rendering: callers get the markup the server returned.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"finder/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxRedirects = 10

// Fetcher issues GET requests with a per-request timeout, a rotating client
// identity, and a polite per-host rate limit.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	identity *Identity
	timeout  time.Duration
	logger   *zap.Logger
}

func New(timeout time.Duration, rps float64, burst int, logger *zap.Logger) *Fetcher {
	if rps <= 0 {
		rps = 4
	}
	if burst <= 0 {
		burst = 8
	}
	return &Fetcher{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		identity: NewIdentity(time.Now().UnixNano()),
		timeout:  timeout,
		logger:   logger,
	}
}

// Fetch retrieves rawURL and returns the body plus the final URL after
// redirects. Timeouts are reported as domain.ErrFetchTimeout so callers can
// move on to an alternate strategy instead of retrying the same URL;
// terminal non-2xx responses are reported as *domain.StatusError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return "", "", f.classify(rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.identity.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", f.classify(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", &domain.StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", f.classify(rawURL, err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return string(body), finalURL, nil
}

// classify maps transport failures onto the fetch error taxonomy.
func (f *Fetcher) classify(rawURL string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		f.logger.Debug("fetch timed out", zap.String("url", rawURL))
		return fmt.Errorf("fetch %s: %w", rawURL, domain.ErrFetchTimeout)
	}
	f.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
	return fmt.Errorf("fetch %s: %w", rawURL, err)
}
