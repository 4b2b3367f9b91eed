package ingest

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type tripCSV struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	Headsign    string `csv:"trip_headsign"`
	ShapeID     string `csv:"shape_id"`
	DirectionID string `csv:"direction_id"`
}

func parseTrips(sched *Schedule, data io.Reader, knownServices map[string]bool) error {
	rows := []*tripCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "unmarshaling trips.txt")
	}

	for _, t := range rows {
		if t.ID == "" {
			return errors.New("empty trip_id")
		}
		if _, ok := sched.Trips[t.ID]; ok {
			return errors.Errorf("repeated trip_id '%s'", t.ID)
		}
		if t.RouteID == "" {
			return errors.Errorf("trip_id '%s' has no route_id", t.ID)
		}
		if _, ok := sched.Routes[t.RouteID]; !ok {
			return errors.Errorf("trip_id '%s' references unknown route_id '%s'", t.ID, t.RouteID)
		}
		if !knownServices[t.ServiceID] {
			return errors.Errorf("trip_id '%s' references unknown service_id '%s'", t.ID, t.ServiceID)
		}

		var direction *int8
		switch t.DirectionID {
		case "":
			// absent, left nil
		case "0":
			v := int8(0)
			direction = &v
		case "1":
			v := int8(1)
			direction = &v
		default:
			return errors.Errorf("trip_id '%s' has invalid direction_id '%s'", t.ID, t.DirectionID)
		}

		sched.Trips[t.ID] = Trip{
			ID:          t.ID,
			RouteID:     t.RouteID,
			ServiceID:   t.ServiceID,
			Headsign:    t.Headsign,
			ShapeID:     t.ShapeID,
			DirectionID: direction,
		}
	}

	return nil
}
