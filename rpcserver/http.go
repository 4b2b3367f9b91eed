package rpcserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/transitdb/scheduled/wire"
)

const (
	getSchedulePath   = "/db_transit.Schedule/GetSchedule"
	getLastUpdatePath = "/db_transit.Schedule/GetLastUpdate"
)

// NewRouter wires the two RPC paths to srv, advertising gzip-compressed
// wire bodies as the spec requires.
func NewRouter(srv *Server) *mux.Router {
	r := mux.NewRouter()
	r.Methods(http.MethodPost).Path(getSchedulePath).HandlerFunc(srv.handleGetSchedule)
	r.Methods(http.MethodPost).Path(getLastUpdatePath).HandlerFunc(srv.handleGetLastUpdate)
	return r
}

// NewHTTPServer builds the *http.Server with the teacher's Slowloris-safe
// timeout defaults.
func NewHTTPServer(addr string, srv *Server) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(srv),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}

	req := &wire.ScheduleRequest{}
	if len(body) > 0 {
		if err := wire.Unmarshal(body, req); err != nil {
			http.Error(w, "decoding request", http.StatusBadRequest)
			return
		}
	}

	resp, err := s.GetSchedule(req)
	if err != nil {
		log.Printf("rpcserver: GetSchedule failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeWireResponse(w, resp)
}

func (s *Server) handleGetLastUpdate(w http.ResponseWriter, r *http.Request) {
	resp, err := s.GetLastUpdate(&wire.LastUpdateRequest{})
	if err != nil {
		log.Printf("rpcserver: GetLastUpdate failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeWireResponse(w, resp)
}

func writeWireResponse(w http.ResponseWriter, v interface{}) {
	out, err := wire.Marshal(v)
	if err != nil {
		log.Printf("rpcserver: marshaling response failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(out); err != nil {
		log.Printf("rpcserver: writing response failed: %v", err)
	}
}

// Run blocks until the store has its first commit, then serves until ctx
// is cancelled.
func Run(ctx context.Context, addr string, srv *Server) error {
	if err := srv.WaitUntilReady(ctx); err != nil {
		return err
	}

	httpSrv := NewHTTPServer(addr, srv)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
