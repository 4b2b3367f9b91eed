package ingest

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// routeCSV reads only route_id and agency_id from routes.txt; agency_id is
// validated here and then dropped, since only the route ID is part of the
// Schedule/IR contract: a route is an identity that trips attach to,
// nothing more.
type routeCSV struct {
	ID       string `csv:"route_id"`
	AgencyID string `csv:"agency_id"`
}

func parseRoutes(sched *Schedule, data io.Reader, agencies map[string]Agency) error {
	rows := []*routeCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "unmarshaling routes.txt")
	}

	for _, r := range rows {
		if r.ID == "" {
			return errors.New("route has no route_id")
		}
		if _, ok := sched.Routes[r.ID]; ok {
			return errors.Errorf("repeated route_id: '%s'", r.ID)
		}

		if len(agencies) > 1 && r.AgencyID == "" {
			return errors.Errorf("route_id '%s' has no agency_id", r.ID)
		}
		if r.AgencyID != "" {
			if _, ok := agencies[r.AgencyID]; !ok {
				return errors.Errorf("route_id '%s' references unknown agency_id '%s'", r.ID, r.AgencyID)
			}
		}

		sched.Routes[r.ID] = Route{ID: r.ID}
	}

	return nil
}
