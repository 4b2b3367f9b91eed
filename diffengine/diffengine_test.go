package diffengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitdb/scheduled/ir"
)

func baseSchedule() *ir.ScheduleIR {
	return &ir.ScheduleIR{
		Routes: map[string]ir.RouteIR{
			"R1": {
				RouteID: "R1",
				Trips: map[string]ir.TripIR{
					"T1": {TripID: "T1", MaskStartDate: "20260101", DateMask: 0b1},
				},
			},
		},
		Shapes: map[string]ir.Shape{
			"SH1": {ShapeID: "SH1", Points: []ir.Position{{Lat: 1, Lon: 2}}},
		},
		Stops: map[string]ir.Stop{
			"ST1": {StopID: "ST1", Name: "First"},
		},
	}
}

func cloneSchedule(s *ir.ScheduleIR) *ir.ScheduleIR {
	out := &ir.ScheduleIR{
		Routes: map[string]ir.RouteIR{},
		Shapes: map[string]ir.Shape{},
		Stops:  map[string]ir.Stop{},
	}
	for id, r := range s.Routes {
		trips := map[string]ir.TripIR{}
		for tid, t := range r.Trips {
			trips[tid] = t
		}
		out.Routes[id] = ir.RouteIR{RouteID: r.RouteID, Trips: trips}
	}
	for id, sh := range s.Shapes {
		out.Shapes[id] = sh
	}
	for id, st := range s.Stops {
		out.Stops[id] = st
	}
	return out
}

func TestDiffIdentityIsEmpty(t *testing.T) {
	a := baseSchedule()
	u, err := Diff(a, a)
	require.NoError(t, err)
	assert.True(t, u.IsEmpty())
}

func TestDiffApplyRoundTrip(t *testing.T) {
	a := baseSchedule()
	b := cloneSchedule(a)
	// Scenario S2: update a stop's name.
	b.Stops["ST1"] = ir.Stop{StopID: "ST1", Name: "First (renamed)"}

	u, err := Diff(b, a)
	require.NoError(t, err)
	result, err := Apply(u, a)
	require.NoError(t, err)
	assert.Equal(t, b, result)
}

func TestDiffApplyRoundTripShapeUpdate(t *testing.T) {
	// Scenario S1: shape point change.
	a := baseSchedule()
	b := cloneSchedule(a)
	b.Shapes["SH1"] = ir.Shape{ShapeID: "SH1", Points: []ir.Position{{Lat: 9, Lon: 9}}}

	u, err := Diff(b, a)
	require.NoError(t, err)
	result, err := Apply(u, a)
	require.NoError(t, err)
	assert.Equal(t, b, result)
}

func TestDiffApplyRoundTripTripStopTimeUpdate(t *testing.T) {
	// Scenario S3: a trip's stop_time changes.
	a := baseSchedule()
	b := cloneSchedule(a)
	trip := b.Routes["R1"].Trips["T1"]
	trip.StopTimes = map[uint32]ir.StopTime{1: {StopID: "ST1", StopSequence: 1}}
	b.Routes["R1"].Trips["T1"] = trip

	u, err := Diff(b, a)
	require.NoError(t, err)
	require.Contains(t, u.RemovedTripIDs, TripKey{RouteID: "R1", TripID: "T1"})
	require.Contains(t, u.AddedTrips, TripKey{RouteID: "R1", TripID: "T1"})

	result, err := Apply(u, a)
	require.NoError(t, err)
	assert.Equal(t, b, result)
}

func TestDiffApplyTripAndStopAdditionAndRemoval(t *testing.T) {
	a := baseSchedule()
	b := cloneSchedule(a)
	delete(b.Stops, "ST1")
	b.Stops["ST2"] = ir.Stop{StopID: "ST2", Name: "Second"}
	b.Routes["R1"].Trips["T2"] = ir.TripIR{TripID: "T2", DateMask: 0b1}
	delete(b.Routes["R1"].Trips, "T1")

	u, err := Diff(b, a)
	require.NoError(t, err)
	result, err := Apply(u, a)
	require.NoError(t, err)
	assert.Equal(t, b, result)
}

func TestCombineComposition(t *testing.T) {
	a := baseSchedule()
	b := cloneSchedule(a)
	b.Stops["ST1"] = ir.Stop{StopID: "ST1", Name: "Renamed once"}

	c := cloneSchedule(b)
	c.Stops["ST1"] = ir.Stop{StopID: "ST1", Name: "Renamed twice"}

	uBA, err := Diff(b, a) // a -> b
	require.NoError(t, err)
	uCB, err := Diff(c, b) // b -> c
	require.NoError(t, err)

	combined, err := Combine(uBA, uCB)
	require.NoError(t, err)

	result, err := Apply(combined, a)
	require.NoError(t, err)
	assert.Equal(t, c, result)
}

func TestCombineAddThenRemoveIsNetNoop(t *testing.T) {
	a := baseSchedule()
	b := cloneSchedule(a)
	b.Stops["ST3"] = ir.Stop{StopID: "ST3", Name: "Temporary"}

	c := cloneSchedule(b)
	delete(c.Stops, "ST3")

	uAB, err := Diff(b, a)
	require.NoError(t, err)
	uBC, err := Diff(c, b)
	require.NoError(t, err)

	combined, err := Combine(uAB, uBC)
	require.NoError(t, err)

	assert.NotContains(t, combined.AddedStops, "ST3")
	assert.NotContains(t, combined.RemovedStopIDs, "ST3")

	result, err := Apply(combined, a)
	require.NoError(t, err)
	assert.Equal(t, a, result)
}

func TestMaskOutcomeImpossibleStatesError(t *testing.T) {
	_, _, err := maskOutcome(false, false, true, true)
	assert.ErrorIs(t, err, ErrImpossibleMask)

	_, _, err = maskOutcome(true, false, true, true)
	assert.ErrorIs(t, err, ErrImpossibleMask)

	_, _, err = maskOutcome(true, true, false, false)
	assert.ErrorIs(t, err, ErrImpossibleMask)
}

func TestDiffRouteAddedErrors(t *testing.T) {
	a := baseSchedule()
	b := cloneSchedule(a)
	b.Routes["R2"] = ir.RouteIR{RouteID: "R2", Trips: map[string]ir.TripIR{}}

	_, err := Diff(b, a)
	assert.ErrorIs(t, err, ErrRouteSetChanged)
}

func TestDiffRouteRemovedErrors(t *testing.T) {
	a := baseSchedule()
	b := cloneSchedule(a)
	delete(b.Routes, "R1")

	_, err := Diff(b, a)
	assert.ErrorIs(t, err, ErrRouteSetChanged)
}

func TestApplyMissingRouteErrors(t *testing.T) {
	a := baseSchedule()
	u := NewUpdate()
	u.AddedTrips[TripKey{RouteID: "RBOGUS", TripID: "TX"}] = ir.TripIR{TripID: "TX"}

	_, err := Apply(u, a)
	assert.ErrorIs(t, err, ErrRouteMissing)
}
