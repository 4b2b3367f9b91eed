package updater

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitdb/scheduled/history"
)

type fakeDownloader struct {
	bodies [][]byte
	calls  int
}

func (f *fakeDownloader) Get(ctx context.Context, url string, headers map[string]string, options GetOptions) ([]byte, error) {
	idx := f.calls
	if idx >= len(f.bodies) {
		idx = len(f.bodies) - 1
	}
	f.calls++
	return f.bodies[idx], nil
}

func buildBundle(t *testing.T, files map[string][]string) []byte {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for name, lines := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(lines, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func minimalFiles(stopName string) map[string][]string {
	return map[string][]string{
		"agency.txt": {
			"agency_id,agency_name,agency_url,agency_timezone",
			"A1,Test Agency,http://example.com,America/New_York",
		},
		"routes.txt": {"route_id,agency_id", "R1,A1"},
		"calendar.txt": {
			"service_id,start_date,end_date,monday,tuesday,wednesday,thursday,friday,saturday,sunday",
			"S1,20260101,20400101,1,1,1,1,1,1,1",
		},
		"trips.txt": {
			"trip_id,route_id,service_id,trip_headsign,shape_id,direction_id",
			"T1,R1,S1,Downtown,,0",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon,parent_station",
			"ST1," + stopName + ",40.0,-74.0,",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"T1,ST1,1,08:00:00,08:00:00",
		},
	}
}

func TestUpdaterBootCommitsInitialSnapshot(t *testing.T) {
	bundle := buildBundle(t, minimalFiles("First"))
	dl := &fakeDownloader{bodies: [][]byte{bundle}}
	store := history.NewStore()

	u := &Updater{Downloader: dl, URL: "http://example.test/gtfs.zip", Store: store, Location: time.UTC, Interval: Interval5Minutes}
	require.NoError(t, u.boot(context.Background()))

	ts, err := store.GetLastUpdate()
	require.NoError(t, err)
	assert.NotZero(t, ts)
}

func TestUpdaterTickSkipsWhenHashUnchanged(t *testing.T) {
	bundle := buildBundle(t, minimalFiles("First"))
	dl := &fakeDownloader{bodies: [][]byte{bundle, bundle}}
	store := history.NewStore()

	u := &Updater{Downloader: dl, URL: "http://example.test/gtfs.zip", Store: store, Location: time.UTC, Interval: Interval5Minutes}
	require.NoError(t, u.boot(context.Background()))
	ts1, _ := store.GetLastUpdate()

	require.NoError(t, u.tick(context.Background()))
	ts2, _ := store.GetLastUpdate()

	assert.Equal(t, ts1, ts2)
}

func TestUpdaterTickCommitsOnChange(t *testing.T) {
	b1 := buildBundle(t, minimalFiles("First"))
	b2 := buildBundle(t, minimalFiles("Second"))
	dl := &fakeDownloader{bodies: [][]byte{b1, b2}}
	store := history.NewStore()

	u := &Updater{Downloader: dl, URL: "http://example.test/gtfs.zip", Store: store, Location: time.UTC, Interval: Interval5Minutes}
	require.NoError(t, u.boot(context.Background()))
	ts1, _ := store.GetLastUpdate()

	time.Sleep(1100 * time.Millisecond) // ensure a distinct unix-second timestamp
	require.NoError(t, u.tick(context.Background()))
	ts2, _ := store.GetLastUpdate()

	assert.NotEqual(t, ts1, ts2)
}

func TestAlignUpRollsWithinHour(t *testing.T) {
	t1 := time.Date(2026, 1, 5, 10, 2, 30, 0, time.UTC)
	got := alignUp(t1, Interval5Minutes)
	assert.Equal(t, time.Date(2026, 1, 5, 10, 5, 0, 0, time.UTC), got)
}

func TestAlignUpRollsToNextHour(t *testing.T) {
	t1 := time.Date(2026, 1, 5, 10, 57, 0, 0, time.UTC)
	got := alignUp(t1, Interval5Minutes)
	assert.Equal(t, time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC), got)
}

func TestAlignUpRollsToNextDayPastHour23(t *testing.T) {
	t1 := time.Date(2026, 1, 5, 23, 59, 0, 0, time.UTC)
	got := alignUp(t1, Interval1Minute)
	assert.Equal(t, time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), got)
}
