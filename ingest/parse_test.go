package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBundleMinimal(t *testing.T) {
	buf := buildZip(t, minimalBundleFiles())

	sched, meta, err := ParseBundle(buf)
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", meta.Timezone)
	assert.Equal(t, "20260101", meta.CalendarStartDate)
	assert.Equal(t, "20261231", meta.CalendarEndDate)

	require.Contains(t, sched.Routes, "R1")
	require.Contains(t, sched.Trips, "T1")
	require.Contains(t, sched.Services, "S1")
	assert.True(t, sched.Services["S1"].Monday)
	assert.False(t, sched.Services["S1"].Saturday)

	require.Len(t, sched.StopTimes["T1"], 2)
	assert.Equal(t, "ST1", sched.StopTimes["T1"][1].StopID)
	assert.Equal(t, "08:00:00", sched.StopTimes["T1"][1].ArrivalTime)
}

func TestParseBundleMissingRequiredFile(t *testing.T) {
	files := minimalBundleFiles()
	delete(files, "stops.txt")
	buf := buildZip(t, files)

	_, _, err := ParseBundle(buf)
	require.Error(t, err)
}

func TestParseBundleUnknownRouteReference(t *testing.T) {
	files := minimalBundleFiles()
	files["trips.txt"] = []string{
		"trip_id,route_id,service_id,trip_headsign,shape_id,direction_id",
		"T1,RBOGUS,S1,Downtown,,0",
	}
	buf := buildZip(t, files)

	_, _, err := ParseBundle(buf)
	require.Error(t, err)
}

func TestParseBundleShapesAndTransfers(t *testing.T) {
	files := minimalBundleFiles()
	files["shapes.txt"] = []string{
		"shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence",
		"SH1,40.0,-74.0,1",
		"SH1,40.05,-74.05,2",
	}
	files["transfers.txt"] = []string{
		"from_stop_id,to_stop_id,min_transfer_time",
		"ST1,ST2,120",
	}
	buf := buildZip(t, files)

	sched, _, err := ParseBundle(buf)
	require.NoError(t, err)

	require.Contains(t, sched.Shapes, "SH1")
	require.Len(t, sched.Shapes["SH1"].Points, 2)
	assert.Equal(t, 40.0, sched.Shapes["SH1"].Points[0].Lat)

	require.Len(t, sched.Transfers["ST1"], 1)
	require.NotNil(t, sched.Transfers["ST1"][0].MinTransferTime)
	assert.EqualValues(t, 120, *sched.Transfers["ST1"][0].MinTransferTime)
}

func TestParseBundleCalendarDatesOnly(t *testing.T) {
	files := minimalBundleFiles()
	delete(files, "calendar.txt")
	files["calendar_dates.txt"] = []string{
		"service_id,date,exception_type",
		"S1,20260102,1",
	}
	buf := buildZip(t, files)

	sched, meta, err := ParseBundle(buf)
	require.NoError(t, err)
	assert.Equal(t, "20260102", meta.CalendarStartDate)
	require.Contains(t, sched.ServiceExceptions, "S1")
}
