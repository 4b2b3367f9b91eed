package diffengine

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/transitdb/scheduled/ir"
)

// Diff returns the Update that transforms prev into curr: curr is the
// newer snapshot. Applying the result to prev (via Apply) reproduces
// curr exactly. The Diff Engine never emits route-level adds or removes;
// a route_id appearing in one snapshot's Routes but not the other's is a
// data error, returned as ErrRouteSetChanged rather than folded into the
// trip-level diff.
func Diff(curr, prev *ir.ScheduleIR) (*Update, error) {
	if err := checkRouteSetUnchanged(curr, prev); err != nil {
		return nil, err
	}

	u := NewUpdate()

	diffStops(u, curr, prev)
	diffShapes(u, curr, prev)
	diffTrips(u, curr, prev)

	return u, nil
}

// checkRouteSetUnchanged enforces Data Model invariant 2: the set of
// route_ids is fixed between any two snapshots the Diff Engine compares.
// A new or vanished route_id is a data error, matching the original's
// .expect("new route") panic, but recoverable per spec's error handling
// design rather than fatal to the process.
func checkRouteSetUnchanged(curr, prev *ir.ScheduleIR) error {
	for id := range curr.Routes {
		if _, ok := prev.Routes[id]; !ok {
			return errors.Wrapf(ErrRouteSetChanged, "route %q added", id)
		}
	}
	for id := range prev.Routes {
		if _, ok := curr.Routes[id]; !ok {
			return errors.Wrapf(ErrRouteSetChanged, "route %q removed", id)
		}
	}
	return nil
}

func diffStops(u *Update, curr, prev *ir.ScheduleIR) {
	for id, stop := range curr.Stops {
		prevStop, existed := prev.Stops[id]
		if existed {
			if !reflect.DeepEqual(stop, prevStop) {
				u.RemovedStopIDs[id] = true
				u.AddedStops[id] = stop
			}
		} else {
			u.AddedStops[id] = stop
		}
	}
	for id := range prev.Stops {
		if _, stillThere := curr.Stops[id]; !stillThere {
			u.RemovedStopIDs[id] = true
		}
	}
}

func diffShapes(u *Update, curr, prev *ir.ScheduleIR) {
	for id, shape := range curr.Shapes {
		prevShape, existed := prev.Shapes[id]
		if existed {
			if !reflect.DeepEqual(shape, prevShape) {
				u.RemovedShapeIDs[id] = true
				u.AddedShapes[id] = shape
			}
		} else {
			u.AddedShapes[id] = shape
		}
	}
	for id := range prev.Shapes {
		if _, stillThere := curr.Shapes[id]; !stillThere {
			u.RemovedShapeIDs[id] = true
		}
	}
}

// diffTrips compares trips route by route. It assumes curr and prev carry
// the same set of route_ids, which checkRouteSetUnchanged has already
// verified before Diff calls this.
func diffTrips(u *Update, curr, prev *ir.ScheduleIR) {
	for routeID, route := range curr.Routes {
		prevRoute := prev.Routes[routeID]

		for tripID, trip := range route.Trips {
			key := TripKey{RouteID: routeID, TripID: tripID}

			prevTrip, tripExisted := prevRoute.Trips[tripID]
			if tripExisted {
				if !reflect.DeepEqual(trip, prevTrip) {
					u.RemovedTripIDs[key] = true
					u.AddedTrips[key] = trip
				}
			} else {
				u.AddedTrips[key] = trip
			}
		}

		for tripID := range prevRoute.Trips {
			key := TripKey{RouteID: routeID, TripID: tripID}
			if _, stillThere := route.Trips[tripID]; !stillThere {
				u.RemovedTripIDs[key] = true
			}
		}
	}
}
