// Package diffengine computes, combines, and applies ScheduleIR updates.
// Every function here is pure and lock-free by design: callers (the
// history store, in particular) depend on being able to run Diff/Apply
// under their own lock without the engine doing any I/O or blocking of
// its own.
package diffengine

import "github.com/transitdb/scheduled/ir"

// TripKey identifies a trip within the scope of a route, matching the
// (route_id, trip_id) pairing the diff is keyed on.
type TripKey struct {
	RouteID string
	TripID  string
}

// Update is the delta between two ScheduleIR snapshots: entries present in
// AddedX replace (or introduce) that ID; entries present in RemovedXIDs no
// longer exist. An ID can appear in both sets at once, meaning "replace".
type Update struct {
	AddedTrips     map[TripKey]ir.TripIR
	RemovedTripIDs map[TripKey]bool

	AddedShapes     map[string]ir.Shape
	RemovedShapeIDs map[string]bool

	AddedStops     map[string]ir.Stop
	RemovedStopIDs map[string]bool
}

// NewUpdate returns an empty, non-nil Update. Diff/Combine always return
// values built through this constructor so every set is non-nil.
func NewUpdate() *Update {
	return &Update{
		AddedTrips:      map[TripKey]ir.TripIR{},
		RemovedTripIDs:  map[TripKey]bool{},
		AddedShapes:     map[string]ir.Shape{},
		RemovedShapeIDs: map[string]bool{},
		AddedStops:      map[string]ir.Stop{},
		RemovedStopIDs:  map[string]bool{},
	}
}

// IsEmpty reports whether the update changes nothing at all.
func (u *Update) IsEmpty() bool {
	return len(u.AddedTrips) == 0 && len(u.RemovedTripIDs) == 0 &&
		len(u.AddedShapes) == 0 && len(u.RemovedShapeIDs) == 0 &&
		len(u.AddedStops) == 0 && len(u.RemovedStopIDs) == 0
}
