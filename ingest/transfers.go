package ingest

import (
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type transferCSV struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	MinTransferTime string `csv:"min_transfer_time"`
}

// parseTransfers is new relative to the teacher's parser set: transfers.txt
// has no query-time consumer in the teacher, but the wire schedule exposes
// transfer records as-is (Section 3), so they just need validating and
// keying by from_stop_id.
func parseTransfers(sched *Schedule, data io.Reader) error {
	rows := []*transferCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "unmarshaling transfers.txt")
	}

	for _, r := range rows {
		if r.FromStopID == "" || r.ToStopID == "" {
			return errors.New("transfer missing from_stop_id or to_stop_id")
		}
		if _, ok := sched.Stops[r.FromStopID]; !ok {
			return errors.Errorf("transfer references unknown from_stop_id '%s'", r.FromStopID)
		}
		if _, ok := sched.Stops[r.ToStopID]; !ok {
			return errors.Errorf("transfer references unknown to_stop_id '%s'", r.ToStopID)
		}

		var minTime *uint32
		if r.MinTransferTime != "" {
			v, err := strconv.ParseUint(r.MinTransferTime, 10, 32)
			if err != nil {
				return errors.Wrapf(err, "parsing min_transfer_time '%s'", r.MinTransferTime)
			}
			u := uint32(v)
			minTime = &u
		}

		sched.Transfers[r.FromStopID] = append(sched.Transfers[r.FromStopID], Transfer{
			FromStopID:      r.FromStopID,
			ToStopID:        r.ToStopID,
			MinTransferTime: minTime,
		})
	}

	return nil
}
