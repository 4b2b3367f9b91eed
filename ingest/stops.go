package ingest

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type stopCSV struct {
	ID            string `csv:"stop_id"`
	Name          string `csv:"stop_name"`
	Lat           string `csv:"stop_lat"`
	Lon           string `csv:"stop_lon"`
	ParentStation string `csv:"parent_station"`
}

func parseStops(sched *Schedule, data io.Reader) error {
	rows := []*stopCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "unmarshaling stops.txt")
	}

	parentRef := map[string]string{}
	for _, st := range rows {
		if st.ID == "" {
			return errors.New("empty stop_id")
		}
		if _, ok := sched.Stops[st.ID]; ok {
			return errors.Errorf("repeated stop_id '%s'", st.ID)
		}

		sched.Stops[st.ID] = Stop{
			ID:            st.ID,
			Name:          st.Name,
			ParentStation: st.ParentStation,
			Lat:           st.Lat,
			Lon:           st.Lon,
		}

		if st.ParentStation != "" {
			parentRef[st.ID] = st.ParentStation
		}
	}

	for stopID, parentID := range parentRef {
		if _, ok := sched.Stops[parentID]; !ok {
			return errors.Errorf("stop '%s' references unknown parent_station '%s'", stopID, parentID)
		}
	}

	return nil
}
