// Package rpcserver exposes the origin's two RPCs, GetSchedule and
// GetLastUpdate, reading exclusively from the history store's read lock.
package rpcserver

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/transitdb/scheduled/history"
	"github.com/transitdb/scheduled/wire"
)

// readyPollInterval is how often Server.WaitUntilReady rechecks the store
// while the first commit has not yet landed.
const readyPollInterval = 100 * time.Millisecond

// Server answers RPCs directly from a history.Store; it holds no state of
// its own beyond the store reference.
type Server struct {
	Store *history.Store
}

// New returns a Server reading from store.
func New(store *history.Store) *Server {
	return &Server{Store: store}
}

// WaitUntilReady blocks until the store has its first committed snapshot,
// matching the spec's "server loop polls until ready before accepting".
func (s *Server) WaitUntilReady(ctx context.Context) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		if _, err := s.Store.GetLastUpdate(); err == nil {
			return nil
		} else if !errors.Is(err, history.ErrNotReady) {
			return errors.Wrap(err, "checking history readiness")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetSchedule returns the full schedule or a delta for the client's
// last-known timestamp, whichever the store holds.
func (s *Server) GetSchedule(req *wire.ScheduleRequest) (*wire.ScheduleResponse, error) {
	var clientTS uint32
	if req != nil && req.Timestamp != nil {
		clientTS = *req.Timestamp
	}

	result, err := s.Store.Read(clientTS)
	if err != nil {
		return nil, errors.Wrap(err, "reading schedule")
	}

	resp := &wire.ScheduleResponse{Timestamp: u32p(result.NewestTS)}

	if result.Delta != nil {
		diff := &wire.ScheduleDiff{}
		if err := wire.Unmarshal(result.Delta, diff); err != nil {
			return nil, errors.Wrap(err, "decoding stored delta")
		}
		resp.ScheduleDiff = diff
		return resp, nil
	}

	resp.FullSchedule = result.Full
	return resp, nil
}

// GetLastUpdate returns the newest committed timestamp, absent before the
// first commit.
func (s *Server) GetLastUpdate(_ *wire.LastUpdateRequest) (*wire.LastUpdateResponse, error) {
	ts, err := s.Store.GetLastUpdate()
	if err != nil {
		if errors.Is(err, history.ErrNotReady) {
			return &wire.LastUpdateResponse{}, nil
		}
		return nil, errors.Wrap(err, "reading last update")
	}
	return &wire.LastUpdateResponse{Timestamp: u32p(ts)}, nil
}

func u32p(v uint32) *uint32 { return &v }
