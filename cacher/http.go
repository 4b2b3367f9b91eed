package cacher

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/transitdb/scheduled/wire"
)

const forwardedPath = "/db_transit.Schedule/GetSchedule"

// lastUpdateCheckTTL bounds how often a burst of requests re-queries the
// origin's GetLastUpdate: a local cache of that one fact, not a change to
// the external contract (the check-then-clear order is still followed on
// every request that falls outside the TTL window).
const lastUpdateCheckTTL = time.Second

// Handler terminates client RPCs at the edge, forwarding cache misses to
// originBaseURL over plain net/http (which negotiates HTTP/2 itself under
// TLS, the idiomatic Go stand-in for a hand-configured HTTP/2 client).
type Handler struct {
	cache         *Cache
	originBaseURL string
	client        *http.Client

	checkMu       sync.Mutex
	lastCheckedAt time.Time
}

// NewHandler returns a Handler forwarding cache misses to originBaseURL.
func NewHandler(originBaseURL string, client *http.Client) *Handler {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Handler{
		cache:         NewCache(),
		originBaseURL: originBaseURL,
		client:        client,
	}
}

// NewRouter wires the single forwarded path; every other path is rejected
// by mux's own NotFoundHandler, set to return an application error rather
// than the default plain 404.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Methods(http.MethodPost).Path(forwardedPath).HandlerFunc(h.ServeHTTP)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unsupported path", http.StatusNotFound)
	})
	return r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.maybeRefreshLastUpdate(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}
	key := string(body)

	if e, ok := h.cache.get(key); ok {
		writeEntry(w, e)
		return
	}

	e, err := h.forward(r, body)
	if err != nil {
		log.Printf("cacher: forwarding to origin failed: %v", err)
		http.Error(w, "origin unavailable", http.StatusBadGateway)
		return
	}

	h.cache.insert(key, e)
	writeEntry(w, e)
}

// maybeRefreshLastUpdate calls the origin's GetLastUpdate at most once per
// lastUpdateCheckTTL, clearing the cache on any change.
func (h *Handler) maybeRefreshLastUpdate(ctx context.Context) {
	h.checkMu.Lock()
	due := time.Since(h.lastCheckedAt) >= lastUpdateCheckTTL
	if due {
		h.lastCheckedAt = time.Now()
	}
	h.checkMu.Unlock()

	if !due {
		return
	}

	ts, ok := h.fetchLastUpdate(ctx)
	h.cache.refreshLastUpdate(ts, ok)
}

func (h *Handler) fetchLastUpdate(ctx context.Context) (uint32, bool) {
	reqBody, err := wire.Marshal(&wire.LastUpdateRequest{})
	if err != nil {
		return 0, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.originBaseURL+"/db_transit.Schedule/GetLastUpdate", bytes.NewReader(reqBody))
	if err != nil {
		return 0, false
	}
	// The origin marks its gzip wire bodies with Content-Encoding: gzip;
	// asking for gzip explicitly stops net/http from decompressing the
	// body before wire.Unmarshal sees it.
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, false
	}

	var decoded wire.LastUpdateResponse
	if err := wire.Unmarshal(respBody, &decoded); err != nil {
		return 0, false
	}
	if decoded.Timestamp == nil {
		return 0, false
	}

	return *decoded.Timestamp, true
}

// forward proxies the request body and headers to the origin, returning
// the response as a cacheable entry.
func (h *Handler) forward(r *http.Request, body []byte) (entry, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.originBaseURL+forwardedPath, bytes.NewReader(body))
	if err != nil {
		return entry{}, errors.Wrap(err, "building forwarded request")
	}
	req.Header = r.Header.Clone()

	resp, err := h.client.Do(req)
	if err != nil {
		return entry{}, errors.Wrap(err, "calling origin")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return entry{}, errors.Wrap(err, "reading origin response")
	}

	return entry{
		body:    respBody,
		header:  resp.Header.Clone(),
		trailer: resp.Trailer.Clone(),
	}, nil
}

// Run serves h on addr until ctx is cancelled, with the same
// Slowloris-safe timeouts and graceful-shutdown shape as rpcserver.Run.
func Run(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(h),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func writeEntry(w http.ResponseWriter, e entry) {
	dst := w.Header()
	for k, v := range e.header {
		dst[k] = v
	}
	for k := range e.trailer {
		dst.Add("Trailer", k)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(e.body); err != nil {
		log.Printf("cacher: writing response failed: %v", err)
		return
	}
	for k, v := range e.trailer {
		for _, vv := range v {
			w.Header().Set(k, vv)
		}
	}
}
