package ingest

import (
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"io"
)

type stopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  uint32 `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
}

// parseStopTimeClock validates an "H:MM:SS" (hour may exceed 23, to allow
// trips that run past midnight) and returns it unchanged: the IR Builder is
// responsible for turning it into seconds-since-midnight, per
// 3600*H + 60*M + S rather than the little-endian sum some upstream
// producers mistakenly emit.
func parseStopTimeClock(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return "", errors.Errorf("found %d parts in '%s'", len(parts), s)
	}

	var hms [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return "", errors.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hms[i] = v
	}

	if hms[0] < 0 || hms[0] > 99 {
		return "", errors.Errorf("invalid hour in '%s'", s)
	}
	if hms[1] < 0 || hms[1] > 59 {
		return "", errors.Errorf("invalid minute in '%s'", s)
	}
	if hms[2] < 0 || hms[2] > 59 {
		return "", errors.Errorf("invalid second in '%s'", s)
	}

	return s, nil
}

func parseStopTimes(sched *Schedule, data io.Reader) error {
	rows := []*stopTimeCSV{}
	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *stopTimeCSV) error {
		i++
		if _, ok := sched.Trips[st.TripID]; !ok {
			return errors.Errorf("unknown trip_id: '%s' (row %d)", st.TripID, i+1)
		}
		if st.StopID == "" {
			return errors.Errorf("missing stop_id (row %d)", i+1)
		}
		if _, ok := sched.Stops[st.StopID]; !ok {
			return errors.Errorf("unknown stop_id: '%s' (row %d)", st.StopID, i+1)
		}

		arr, err := parseStopTimeClock(st.ArrivalTime)
		if err != nil {
			return errors.Wrapf(err, "parsing arrival_time (row %d)", i+1)
		}
		dep, err := parseStopTimeClock(st.DepartureTime)
		if err != nil {
			return errors.Wrapf(err, "parsing departure_time (row %d)", i+1)
		}
		st.ArrivalTime = arr
		st.DepartureTime = dep

		rows = append(rows, st)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "unmarshaling stop_times.txt")
	}

	seqSeen := map[string]map[uint32]bool{}
	for _, st := range rows {
		seen := seqSeen[st.TripID]
		if seen == nil {
			seen = map[uint32]bool{}
			seqSeen[st.TripID] = seen
		}
		if seen[st.StopSequence] {
			return errors.Errorf("duplicate stop_sequence %d for trip_id '%s'", st.StopSequence, st.TripID)
		}
		seen[st.StopSequence] = true

		byTrip, ok := sched.StopTimes[st.TripID]
		if !ok {
			byTrip = map[uint32]StopTime{}
			sched.StopTimes[st.TripID] = byTrip
		}
		byTrip[st.StopSequence] = StopTime{
			TripID:        st.TripID,
			StopID:        st.StopID,
			StopSequence:  st.StopSequence,
			ArrivalTime:   st.ArrivalTime,
			DepartureTime: st.DepartureTime,
		}
	}

	return nil
}
