package ingest

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildZip writes an in-memory zip from text-file contents, one line per
// slice entry. Adapted from the teacher's BuildZip helper.
func buildZip(t testing.TB, files map[string][]string) []byte {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for filename, content := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(content, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func minimalBundleFiles() map[string][]string {
	return map[string][]string{
		"agency.txt": {
			"agency_id,agency_name,agency_url,agency_timezone",
			"A1,Test Agency,http://example.com,America/New_York",
		},
		"routes.txt": {
			"route_id,agency_id",
			"R1,A1",
		},
		"calendar.txt": {
			"service_id,start_date,end_date,monday,tuesday,wednesday,thursday,friday,saturday,sunday",
			"S1,20260101,20261231,1,1,1,1,1,0,0",
		},
		"trips.txt": {
			"trip_id,route_id,service_id,trip_headsign,shape_id,direction_id",
			"T1,R1,S1,Downtown,,0",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon,parent_station",
			"ST1,First St,40.0,-74.0,",
			"ST2,Second St,40.1,-74.1,",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"T1,ST1,1,08:00:00,08:00:00",
			"T1,ST2,2,08:10:00,08:10:00",
		},
	}
}
