// Package updater periodically fetches the upstream bundle, reparses it
// when its content actually changed, and commits a fresh snapshot to the
// history store.
package updater

import (
	"context"
	"crypto/sha256"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/transitdb/scheduled/diffengine"
	"github.com/transitdb/scheduled/history"
	"github.com/transitdb/scheduled/ingest"
	"github.com/transitdb/scheduled/ir"
)

// IntervalMinutes is the only legal tick alignment granularity, matching
// the spec's INTERVAL_MINUTES constant.
type IntervalMinutes int

const (
	Interval1Minute  IntervalMinutes = 1
	Interval5Minutes IntervalMinutes = 5
)

// tickSleep is how long the tick loop sleeps between checking whether
// next_tick has arrived.
const tickSleep = 30 * time.Second

// cycleRetryBackoff is a fixed 30s delay between cycles, separate from the
// supervisor's 1s fatal restart backoff. Run does not wait on it: a failed
// tick is logged and retried at the next aligned tick, and a failed boot
// returns to the supervisor.
const cycleRetryBackoff = 30 * time.Second

// Updater owns the fetch -> hash -> parse -> build -> commit cycle.
type Updater struct {
	Downloader Downloader
	URL        string
	Headers    map[string]string
	Store      *history.Store
	Location   *time.Location
	Interval   IntervalMinutes

	lastHash [32]byte
	lastIR   *ir.ScheduleIR
}

// New returns an Updater configured with its production Downloader.
func New(url string, store *history.Store, loc *time.Location, interval IntervalMinutes) *Updater {
	return &Updater{
		Downloader: HTTPDownloader{},
		URL:        url,
		Store:      store,
		Location:   loc,
		Interval:   interval,
	}
}

// Run executes the boot cycle then ticks indefinitely until ctx is
// cancelled, per the spec's update_loop state machine.
func (u *Updater) Run(ctx context.Context) error {
	if err := u.boot(ctx); err != nil {
		return errors.Wrap(err, "booting updater")
	}

	nextTick := alignUp(time.Now().In(u.Location), u.Interval)

	ticker := time.NewTicker(tickSleep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := time.Now().In(u.Location)
			if now.Before(nextTick) {
				continue
			}

			if err := u.tick(ctx); err != nil {
				log.Printf("updater: tick failed, will retry next cycle: %v", err)
			}

			nextTick = alignUp(time.Now().In(u.Location), u.Interval)
		}
	}
}

// boot performs the first fetch unconditionally and commits the initial
// snapshot. A failure here is fatal to the updater goroutine; the
// supervisor restarts it after its own 1s backoff.
func (u *Updater) boot(ctx context.Context) error {
	buf, err := u.fetch(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching initial bundle")
	}

	hash := sha256.Sum256(buf)

	n, err := u.parseAndBuild(buf)
	if err != nil {
		return errors.Wrap(err, "parsing initial bundle")
	}

	if err := u.Store.Commit(n, nowTimestamp()); err != nil {
		return errors.Wrap(err, "committing initial snapshot")
	}

	u.lastHash = hash
	u.lastIR = n

	return nil
}

// tick performs one fetch-hash-parse-commit cycle, short-circuiting as
// early as possible when nothing has actually changed.
func (u *Updater) tick(ctx context.Context) error {
	buf, err := u.fetch(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching bundle")
	}

	hash := sha256.Sum256(buf)
	if hash == u.lastHash {
		// Immaterial update: bytes are byte-identical to last time.
		return nil
	}

	n, err := u.parseAndBuild(buf)
	if err != nil {
		return errors.Wrap(err, "parsing bundle")
	}
	u.lastHash = hash

	if u.lastIR != nil {
		eq, err := scheduleEqual(n, u.lastIR)
		if err != nil {
			return errors.Wrap(err, "comparing bundle against last built IR")
		}
		if eq {
			// Content hash changed but the built IR didn't (e.g. upstream
			// re-exported with different whitespace): record the new
			// hash only, no commit.
			return nil
		}
	}

	if err := u.Store.Commit(n, nowTimestamp()); err != nil {
		return errors.Wrap(err, "committing snapshot")
	}
	u.lastIR = n

	return nil
}

func (u *Updater) fetch(ctx context.Context) ([]byte, error) {
	return u.Downloader.Get(ctx, u.URL, u.Headers, GetOptions{
		Timeout: 60 * time.Second,
	})
}

func (u *Updater) parseAndBuild(buf []byte) (*ir.ScheduleIR, error) {
	sched, _, err := ingest.ParseBundle(buf)
	if err != nil {
		return nil, errors.Wrap(err, "parsing bundle")
	}

	n, err := ir.FromScheduleDefault(sched, u.Location)
	if err != nil {
		return nil, errors.Wrap(err, "building IR")
	}

	return n, nil
}

func scheduleEqual(a, b *ir.ScheduleIR) (bool, error) {
	d, err := diffengine.Diff(a, b)
	if err != nil {
		return false, err
	}
	return d.IsEmpty(), nil
}

func nowTimestamp() uint32 {
	return uint32(time.Now().Unix())
}

// alignUp rounds t up to the next boundary of interval minutes within the
// hour, rolling to the next hour (and next day past hour 23) when the
// current minute is already past the last interval boundary in the hour.
func alignUp(t time.Time, interval IntervalMinutes) time.Time {
	step := int(interval)
	minute := t.Minute()
	nextMinute := ((minute / step) + 1) * step

	if nextMinute >= 60 {
		truncatedHour := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
		return truncatedHour.Add(time.Hour)
	}

	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), nextMinute, 0, 0, t.Location())
}
