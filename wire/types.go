// Package wire defines the values exchanged over the RPC surface and the
// codec that serializes them. The literal binary length-prefixed,
// HTTP/2-framed transport is out of this system's scope; these are plain
// Go structs gob-encoded and gzip-compressed, carried over HTTP/1.1
// (package rpcserver), which is the nearest idiomatic Go stand-in for that
// excluded wire codec.
package wire

// Position is a single lat/lon pair.
type Position struct {
	Lat *float64
	Lon *float64
}

// Transfer mirrors a transfers.txt row at the wire level.
type Transfer struct {
	FromStopID      *string
	ToStopID        *string
	MinTransferTime *uint32
}

// Stop is a wire-level stop, including its derived RouteIDs.
type Stop struct {
	StopID        *string
	StopName      *string
	ParentStopID  *string
	TransfersFrom []Transfer
	Position      *Position
	RouteIDs      []string
}

// Shape is a wire-level named polyline.
type Shape struct {
	ShapeID *string
	Points  []Position
}

// StopTime is a wire-level stop visit; arrival/departure are seconds since
// midnight of the trip's reference day, per the system boundary's fixed
// time representation (H*3600 + M*60 + S).
type StopTime struct {
	StopID        *string
	ArrivalTime   *uint32
	DepartureTime *uint32
	StopSequence  *uint32
}

// Trip is a wire-level trip, self-contained with its activity mask.
type Trip struct {
	TripID        *string
	StopTimes     []StopTime
	Headsign      *string
	ShapeID       *string
	Direction     *uint32
	MaskStartDate *string
	DateMask      *uint32
}

// Route is a wire-level route and its trips.
type Route struct {
	RouteID *string
	Trips   []Trip
}

// FullSchedule is the entire current snapshot, wire-shaped.
type FullSchedule struct {
	Routes []Route
	Shapes []Shape
	Stops  []Stop
}

// TripExt pairs a wire Trip with the route_id it belongs to, since
// ScheduleDiff addresses trips outside any Route wrapper.
type TripExt struct {
	Trip    *Trip
	RouteID *string
}

// TripIdTuple identifies a trip for removal purposes.
type TripIdTuple struct {
	RouteID *string
	TripID  *string
}

// ScheduleDiff is the wire form of a diffengine.Update.
type ScheduleDiff struct {
	AddedTrips     []TripExt
	RemovedTripIDs []TripIdTuple

	AddedShapes     []Shape
	RemovedShapeIDs []string

	AddedStops     []Stop
	RemovedStopIDs []string
}

// ScheduleRequest carries the client's last-known snapshot timestamp, if
// any.
type ScheduleRequest struct {
	Timestamp *uint32
}

// ScheduleResponse carries exactly one of FullSchedule or ScheduleDiff.
type ScheduleResponse struct {
	FullSchedule *FullSchedule
	ScheduleDiff *ScheduleDiff
	Timestamp    *uint32
}

// LastUpdateRequest is empty; GetLastUpdate takes no parameters.
type LastUpdateRequest struct{}

// LastUpdateResponse carries the newest origin timestamp, if any commit
// has happened yet.
type LastUpdateResponse struct {
	Timestamp *uint32
}
