package updater

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// GetOptions configures a Downloader.Get call. Adapted from the teacher's
// downloader package; Cache/CacheTTL are dropped since the Updater never
// wants a cached response, only the bytes on the wire right now.
type GetOptions struct {
	MaxSize int
	Timeout time.Duration
}

// Downloader fetches a URL's body. An interface so tests can substitute a
// fixture without a network round trip.
type Downloader interface {
	Get(ctx context.Context, url string, headers map[string]string, options GetOptions) ([]byte, error)
}

// HTTPDownloader is the Downloader used in production: a plain
// context-aware GET with an optional response size cap.
type HTTPDownloader struct{}

func (HTTPDownloader) Get(ctx context.Context, url string, headers map[string]string, options GetOptions) ([]byte, error) {
	client := &http.Client{Timeout: options.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	for k, v := range headers {
		req.Header.Add(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "making request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("status %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if options.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, int64(options.MaxSize))
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}

	return body, nil
}
