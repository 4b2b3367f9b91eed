package rpcserver

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitdb/scheduled/history"
	"github.com/transitdb/scheduled/ir"
	"github.com/transitdb/scheduled/wire"
)

func schedAt(stopName string) *ir.ScheduleIR {
	return &ir.ScheduleIR{
		Routes: map[string]ir.RouteIR{},
		Shapes: map[string]ir.Shape{},
		Stops: map[string]ir.Stop{
			"ST1": {StopID: "ST1", Name: stopName},
		},
	}
}

func TestGetScheduleNotReady(t *testing.T) {
	srv := New(history.NewStore())
	_, err := srv.GetSchedule(&wire.ScheduleRequest{})
	assert.Error(t, err)
}

func TestGetScheduleReturnsFullForUnknownTimestamp(t *testing.T) {
	store := history.NewStore()
	require.NoError(t, store.Commit(schedAt("First"), 100))

	srv := New(store)
	resp, err := srv.GetSchedule(&wire.ScheduleRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp.FullSchedule)
	assert.Nil(t, resp.ScheduleDiff)
	require.NotNil(t, resp.Timestamp)
	assert.Equal(t, uint32(100), *resp.Timestamp)
}

func TestGetScheduleReturnsDiffForKnownTimestamp(t *testing.T) {
	store := history.NewStore()
	require.NoError(t, store.Commit(schedAt("First"), 100))
	require.NoError(t, store.Commit(schedAt("Second"), 200))

	srv := New(store)
	ts := uint32(100)
	resp, err := srv.GetSchedule(&wire.ScheduleRequest{Timestamp: &ts})
	require.NoError(t, err)
	require.NotNil(t, resp.ScheduleDiff)
	assert.Nil(t, resp.FullSchedule)
	require.NotNil(t, resp.Timestamp)
	assert.Equal(t, uint32(200), *resp.Timestamp)
}

func TestGetLastUpdateAbsentBeforeFirstCommit(t *testing.T) {
	srv := New(history.NewStore())
	resp, err := srv.GetLastUpdate(&wire.LastUpdateRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.Timestamp)
}

func TestGetLastUpdateReturnsNewestTimestamp(t *testing.T) {
	store := history.NewStore()
	require.NoError(t, store.Commit(schedAt("First"), 100))

	srv := New(store)
	resp, err := srv.GetLastUpdate(&wire.LastUpdateRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp.Timestamp)
	assert.Equal(t, uint32(100), *resp.Timestamp)
}

func TestWaitUntilReadyUnblocksAfterCommit(t *testing.T) {
	store := history.NewStore()
	srv := New(store)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.WaitUntilReady(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, store.Commit(schedAt("First"), 1))

	require.NoError(t, <-done)
}

func TestHTTPRoundTripGetSchedule(t *testing.T) {
	store := history.NewStore()
	require.NoError(t, store.Commit(schedAt("First"), 100))
	srv := New(store)

	router := NewRouter(srv)
	ts := httptest.NewServer(router)
	defer ts.Close()

	body, err := wire.Marshal(&wire.ScheduleRequest{})
	require.NoError(t, err)

	// Declaring gzip support explicitly keeps net/http from transparently
	// decompressing the body and dropping the Content-Encoding header.
	req, err := http.NewRequest(http.MethodPost, ts.URL+getSchedulePath, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept-Encoding", "gzip")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))

	respBytes, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var resp wire.ScheduleResponse
	require.NoError(t, wire.Unmarshal(respBytes, &resp))
	require.NotNil(t, resp.FullSchedule)
}
