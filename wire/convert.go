package wire

import (
	"github.com/transitdb/scheduled/diffengine"
	"github.com/transitdb/scheduled/ir"
)

func strp(s string) *string   { return &s }
func u32p(v uint32) *uint32   { return &v }
func f64p(v float64) *float64 { return &v }

func fromIRPosition(p *ir.Position) *Position {
	if p == nil {
		return nil
	}
	return &Position{Lat: f64p(p.Lat), Lon: f64p(p.Lon)}
}

func fromIRTransfers(ts []ir.Transfer) []Transfer {
	out := make([]Transfer, 0, len(ts))
	for _, t := range ts {
		out = append(out, Transfer{
			FromStopID:      strp(t.FromStopID),
			ToStopID:        strp(t.ToStopID),
			MinTransferTime: t.MinTransferTime,
		})
	}
	return out
}

func fromIRStop(s ir.Stop) Stop {
	return Stop{
		StopID:        strp(s.StopID),
		StopName:      strp(s.Name),
		ParentStopID:  strp(s.ParentStopID),
		TransfersFrom: fromIRTransfers(s.TransfersFrom),
		Position:      fromIRPosition(s.Position),
		RouteIDs:      append([]string{}, s.RouteIDs...),
	}
}

func fromIRShape(s ir.Shape) Shape {
	points := make([]Position, len(s.Points))
	for i, p := range s.Points {
		points[i] = Position{Lat: f64p(p.Lat), Lon: f64p(p.Lon)}
	}
	return Shape{ShapeID: strp(s.ShapeID), Points: points}
}

func fromIRStopTimes(sts map[uint32]ir.StopTime) []StopTime {
	out := make([]StopTime, 0, len(sts))
	for seq, st := range sts {
		seq := seq
		out = append(out, StopTime{
			StopID:        strp(st.StopID),
			ArrivalTime:   st.ArrivalTime,
			DepartureTime: st.DepartureTime,
			StopSequence:  u32p(seq),
		})
	}
	return out
}

func fromIRTrip(t ir.TripIR) Trip {
	return Trip{
		TripID:        strp(t.TripID),
		StopTimes:     fromIRStopTimes(t.StopTimes),
		Headsign:      strp(t.Headsign),
		ShapeID:       strp(t.ShapeID),
		Direction:     t.Direction,
		MaskStartDate: strp(t.MaskStartDate),
		DateMask:      u32p(t.DateMask),
	}
}

// FromScheduleIR converts a ScheduleIR into its wire form.
func FromScheduleIR(s *ir.ScheduleIR) *FullSchedule {
	routes := make([]Route, 0, len(s.Routes))
	for _, r := range s.Routes {
		trips := make([]Trip, 0, len(r.Trips))
		for _, t := range r.Trips {
			trips = append(trips, fromIRTrip(t))
		}
		routes = append(routes, Route{RouteID: strp(r.RouteID), Trips: trips})
	}

	shapes := make([]Shape, 0, len(s.Shapes))
	for _, sh := range s.Shapes {
		shapes = append(shapes, fromIRShape(sh))
	}

	stops := make([]Stop, 0, len(s.Stops))
	for _, st := range s.Stops {
		stops = append(stops, fromIRStop(st))
	}

	return &FullSchedule{Routes: routes, Shapes: shapes, Stops: stops}
}

// FromUpdate converts a diffengine.Update into its wire form.
func FromUpdate(u *diffengine.Update) *ScheduleDiff {
	addedTrips := make([]TripExt, 0, len(u.AddedTrips))
	for key, trip := range u.AddedTrips {
		wt := fromIRTrip(trip)
		addedTrips = append(addedTrips, TripExt{Trip: &wt, RouteID: strp(key.RouteID)})
	}

	removedTrips := make([]TripIdTuple, 0, len(u.RemovedTripIDs))
	for key := range u.RemovedTripIDs {
		removedTrips = append(removedTrips, TripIdTuple{RouteID: strp(key.RouteID), TripID: strp(key.TripID)})
	}

	addedShapes := make([]Shape, 0, len(u.AddedShapes))
	for _, s := range u.AddedShapes {
		addedShapes = append(addedShapes, fromIRShape(s))
	}

	removedShapes := make([]string, 0, len(u.RemovedShapeIDs))
	for id := range u.RemovedShapeIDs {
		removedShapes = append(removedShapes, id)
	}

	addedStops := make([]Stop, 0, len(u.AddedStops))
	for _, s := range u.AddedStops {
		addedStops = append(addedStops, fromIRStop(s))
	}

	removedStops := make([]string, 0, len(u.RemovedStopIDs))
	for id := range u.RemovedStopIDs {
		removedStops = append(removedStops, id)
	}

	return &ScheduleDiff{
		AddedTrips:      addedTrips,
		RemovedTripIDs:  removedTrips,
		AddedShapes:     addedShapes,
		RemovedShapeIDs: removedShapes,
		AddedStops:      addedStops,
		RemovedStopIDs:  removedStops,
	}
}
