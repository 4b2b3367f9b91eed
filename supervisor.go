// Package scheduled wires the origin's two long-lived tasks together and
// restarts them as a pair whenever either one fails.
package scheduled

import (
	"context"
	"log"
	"time"

	"github.com/transitdb/scheduled/history"
	"github.com/transitdb/scheduled/rpcserver"
	"github.com/transitdb/scheduled/updater"
)

// restartBackoff is the fixed delay before the supervisor restarts both
// tasks after either one fails.
const restartBackoff = 1 * time.Second

// Supervisor owns the origin's server_loop and update_loop and keeps both
// running for as long as the parent context is alive.
type Supervisor struct {
	Store     *history.Store
	RPCAddr   string
	RPCServer *rpcserver.Server
	Updater   *updater.Updater
}

// NewSupervisor wires an RPC server and an Updater around a shared
// history store.
func NewSupervisor(store *history.Store, rpcAddr string, u *updater.Updater) *Supervisor {
	return &Supervisor{
		Store:     store,
		RPCAddr:   rpcAddr,
		RPCServer: rpcserver.New(store),
		Updater:   u,
	}
}

// Run blocks until ctx is cancelled, restarting both tasks together with a
// fixed 1s backoff whenever either one returns (success or error).
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Printf("supervisor: a task exited (%v), restarting both in %s", err, restartBackoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(restartBackoff):
		}
	}
}

// runOnce starts server_loop and update_loop, waits for the first to
// return, then cancels the other and waits for it to unwind.
func (s *Supervisor) runOnce(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan error, 2)

	go func() {
		done <- rpcserver.Run(ctx, s.RPCAddr, s.RPCServer)
	}()
	go func() {
		done <- s.Updater.Run(ctx)
	}()

	first := <-done
	cancel()
	<-done

	return first
}

// RunSupervised restarts a single long-lived task with the same fixed 1s
// backoff, for binaries (the cacher) with only one inner loop to babysit.
func RunSupervised(ctx context.Context, task func(context.Context) error) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := task(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Printf("supervisor: task exited (%v), restarting in %s", err, restartBackoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(restartBackoff):
		}
	}
}
