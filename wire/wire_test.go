package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitdb/scheduled/diffengine"
	"github.com/transitdb/scheduled/ir"
)

func TestFromScheduleIRRoundTripsThroughCodec(t *testing.T) {
	sched := &ir.ScheduleIR{
		Routes: map[string]ir.RouteIR{
			"R1": {RouteID: "R1", Trips: map[string]ir.TripIR{
				"T1": {TripID: "T1", MaskStartDate: "20260101", DateMask: 0b1},
			}},
		},
		Shapes: map[string]ir.Shape{
			"SH1": {ShapeID: "SH1", Points: []ir.Position{{Lat: 1, Lon: 2}}},
		},
		Stops: map[string]ir.Stop{
			"ST1": {StopID: "ST1", Name: "First"},
		},
	}

	full := FromScheduleIR(sched)
	require.Len(t, full.Routes, 1)
	require.Len(t, full.Stops, 1)

	data, err := Marshal(full)
	require.NoError(t, err)

	var decoded FullSchedule
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Len(t, decoded.Routes, 1)
	assert.Len(t, decoded.Shapes, 1)
	assert.Len(t, decoded.Stops, 1)
}

func TestFromUpdateConvertsAllFields(t *testing.T) {
	u := diffengine.NewUpdate()
	u.AddedTrips[diffengine.TripKey{RouteID: "R1", TripID: "T1"}] = ir.TripIR{TripID: "T1"}
	u.RemovedTripIDs[diffengine.TripKey{RouteID: "R1", TripID: "T2"}] = true
	u.AddedShapes["SH1"] = ir.Shape{ShapeID: "SH1"}
	u.RemovedShapeIDs["SH2"] = true
	u.AddedStops["ST1"] = ir.Stop{StopID: "ST1"}
	u.RemovedStopIDs["ST2"] = true

	diff := FromUpdate(u)
	assert.Len(t, diff.AddedTrips, 1)
	assert.Len(t, diff.RemovedTripIDs, 1)
	assert.Len(t, diff.AddedShapes, 1)
	assert.Len(t, diff.RemovedShapeIDs, 1)
	assert.Len(t, diff.AddedStops, 1)
	assert.Len(t, diff.RemovedStopIDs, 1)
}
