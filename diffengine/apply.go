package diffengine

import "github.com/transitdb/scheduled/ir"

// Apply produces the ScheduleIR that results from applying u to base.
// base is not mutated. Removals are applied before insertions, so an ID
// present in both RemovedXIDs and AddedX ends up present with the added
// value (a "replace").
func Apply(u *Update, base *ir.ScheduleIR) (*ir.ScheduleIR, error) {
	out := &ir.ScheduleIR{
		Shapes: make(map[string]ir.Shape, len(base.Shapes)),
		Stops:  make(map[string]ir.Stop, len(base.Stops)),
		Routes: make(map[string]ir.RouteIR, len(base.Routes)),
	}

	for id, shape := range base.Shapes {
		out.Shapes[id] = shape
	}
	for id := range u.RemovedShapeIDs {
		delete(out.Shapes, id)
	}
	for id, shape := range u.AddedShapes {
		out.Shapes[id] = shape
	}

	for id, stop := range base.Stops {
		out.Stops[id] = stop
	}
	for id := range u.RemovedStopIDs {
		delete(out.Stops, id)
	}
	for id, stop := range u.AddedStops {
		out.Stops[id] = stop
	}

	for routeID, route := range base.Routes {
		trips := make(map[string]ir.TripIR, len(route.Trips))
		for tripID, trip := range route.Trips {
			trips[tripID] = trip
		}
		out.Routes[routeID] = ir.RouteIR{RouteID: route.RouteID, Trips: trips}
	}

	for key := range u.RemovedTripIDs {
		route, ok := out.Routes[key.RouteID]
		if !ok {
			return nil, ErrRouteMissing
		}
		delete(route.Trips, key.TripID)
	}
	for key, trip := range u.AddedTrips {
		route, ok := out.Routes[key.RouteID]
		if !ok {
			return nil, ErrRouteMissing
		}
		route.Trips[key.TripID] = trip
	}

	return out, nil
}
