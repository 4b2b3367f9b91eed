package diffengine

import "github.com/transitdb/scheduled/ir"

// maskOutcome is the (inRemoved, addedFrom) result of combining the
// membership flags (r1, r2, a1, a2) for one ID across two updates, where
// u1 is applied first and u2 second. addedFrom is nil when the ID ends up
// in neither added set, false when u1's added value wins, true when u2's
// does.
//
// The table below is exhaustive over all 16 combinations of
// (r1, r2, a1, a2); three are impossible for any pair of updates actually
// produced by Diff and return an error instead of a result:
//
//	r1 r2 a1 a2 -> (inRemoved, addedFrom)
//	 0  0  0  0 -> false, nil    (untouched by either)
//	 0  0  1  0 -> false, false  (added only by u1)
//	 0  0  0  1 -> false, true   (added only by u2)
//	 0  0  1  1 -> IMPOSSIBLE    (both add a brand-new ID independently)
//	 0  1  0  0 -> true,  nil    (removed only by u2, nothing added back)
//	 0  1  1  0 -> false, nil    (u1 adds, u2 removes: net no-op)
//	 0  1  0  1 -> true,  true   (u2 replaces and its add wins)
//	 0  1  1  1 -> true,  true   (u1 adds, u2 replaces: u2's add wins)
//	 1  0  0  0 -> true,  nil    (removed only by u1)
//	 1  0  1  0 -> true,  false  (u1 replaces, u2 leaves it removed)
//	 1  0  0  1 -> true,  true   (u1 removes, u2 adds back: replace)
//	 1  0  1  1 -> IMPOSSIBLE    (u1 replaces, u2 independently re-adds)
//	 1  1  0  0 -> IMPOSSIBLE    (both remove but neither add: same ID twice)
//	 1  1  1  0 -> true,  nil    (u1 replaces, u2 removes: net removal)
//	 1  1  0  1 -> true,  true   (u1 removes, u2 replaces: u2's add wins)
//	 1  1  1  1 -> true,  true   (both replace: u2's add wins)
func maskOutcome(r1, r2, a1, a2 bool) (inRemoved bool, addedFrom *bool, err error) {
	t := func(b bool) *bool { return &b }

	switch {
	case !r1 && !r2 && !a1 && !a2:
		return false, nil, nil
	case !r1 && !r2 && a1 && !a2:
		return false, t(false), nil
	case !r1 && !r2 && !a1 && a2:
		return false, t(true), nil
	case !r1 && !r2 && a1 && a2:
		return false, nil, ErrImpossibleMask
	case !r1 && r2 && !a1 && !a2:
		return true, nil, nil
	case !r1 && r2 && a1 && !a2:
		return false, nil, nil
	case !r1 && r2 && !a1 && a2:
		return true, t(true), nil
	case !r1 && r2 && a1 && a2:
		return true, t(true), nil
	case r1 && !r2 && !a1 && !a2:
		return true, nil, nil
	case r1 && !r2 && a1 && !a2:
		return true, t(false), nil
	case r1 && !r2 && !a1 && a2:
		return true, t(true), nil
	case r1 && !r2 && a1 && a2:
		return false, nil, ErrImpossibleMask
	case r1 && r2 && !a1 && !a2:
		return false, nil, ErrImpossibleMask
	case r1 && r2 && a1 && !a2:
		return true, nil, nil
	case r1 && r2 && !a1 && a2:
		return true, t(true), nil
	case r1 && r2 && a1 && a2:
		return true, t(true), nil
	}

	// Unreachable: the 16 cases above are exhaustive over 4 booleans.
	return false, nil, ErrImpossibleMask
}

// Combine merges two sequential updates u1 then u2 into a single update
// with the same net effect: apply(Combine(u1, u2), base) == apply(u2,
// apply(u1, base)). Returns ErrImpossibleMask if u1 and u2 could not have
// been produced by Diff against a shared lineage of snapshots.
func Combine(u1, u2 *Update) (*Update, error) {
	out := NewUpdate()

	if err := combineShapes(out, u1, u2); err != nil {
		return nil, err
	}
	if err := combineStops(out, u1, u2); err != nil {
		return nil, err
	}
	if err := combineTrips(out, u1, u2); err != nil {
		return nil, err
	}

	return out, nil
}

func allShapeIDs(u1, u2 *Update) map[string]bool {
	ids := map[string]bool{}
	for id := range u1.RemovedShapeIDs {
		ids[id] = true
	}
	for id := range u2.RemovedShapeIDs {
		ids[id] = true
	}
	for id := range u1.AddedShapes {
		ids[id] = true
	}
	for id := range u2.AddedShapes {
		ids[id] = true
	}
	return ids
}

func combineShapes(out, u1, u2 *Update) error {
	for id := range allShapeIDs(u1, u2) {
		inRemoved, addedFrom, err := maskOutcome(
			u1.RemovedShapeIDs[id], u2.RemovedShapeIDs[id],
			shapeExists(u1.AddedShapes, id), shapeExists(u2.AddedShapes, id),
		)
		if err != nil {
			return err
		}
		if inRemoved {
			out.RemovedShapeIDs[id] = true
		}
		if addedFrom != nil {
			if !*addedFrom {
				out.AddedShapes[id] = u1.AddedShapes[id]
			} else {
				out.AddedShapes[id] = u2.AddedShapes[id]
			}
		}
	}
	return nil
}

func shapeExists(m map[string]ir.Shape, id string) bool {
	_, ok := m[id]
	return ok
}

func allStopIDs(u1, u2 *Update) map[string]bool {
	ids := map[string]bool{}
	for id := range u1.RemovedStopIDs {
		ids[id] = true
	}
	for id := range u2.RemovedStopIDs {
		ids[id] = true
	}
	for id := range u1.AddedStops {
		ids[id] = true
	}
	for id := range u2.AddedStops {
		ids[id] = true
	}
	return ids
}

func combineStops(out, u1, u2 *Update) error {
	for id := range allStopIDs(u1, u2) {
		inRemoved, addedFrom, err := maskOutcome(
			u1.RemovedStopIDs[id], u2.RemovedStopIDs[id],
			stopExists(u1.AddedStops, id), stopExists(u2.AddedStops, id),
		)
		if err != nil {
			return err
		}
		if inRemoved {
			out.RemovedStopIDs[id] = true
		}
		if addedFrom != nil {
			if !*addedFrom {
				out.AddedStops[id] = u1.AddedStops[id]
			} else {
				out.AddedStops[id] = u2.AddedStops[id]
			}
		}
	}
	return nil
}

func stopExists(m map[string]ir.Stop, id string) bool {
	_, ok := m[id]
	return ok
}

func allTripKeys(u1, u2 *Update) map[TripKey]bool {
	keys := map[TripKey]bool{}
	for k := range u1.RemovedTripIDs {
		keys[k] = true
	}
	for k := range u2.RemovedTripIDs {
		keys[k] = true
	}
	for k := range u1.AddedTrips {
		keys[k] = true
	}
	for k := range u2.AddedTrips {
		keys[k] = true
	}
	return keys
}

func combineTrips(out, u1, u2 *Update) error {
	for key := range allTripKeys(u1, u2) {
		inRemoved, addedFrom, err := maskOutcome(
			u1.RemovedTripIDs[key], u2.RemovedTripIDs[key],
			tripExists(u1.AddedTrips, key), tripExists(u2.AddedTrips, key),
		)
		if err != nil {
			return err
		}
		if inRemoved {
			out.RemovedTripIDs[key] = true
		}
		if addedFrom != nil {
			if !*addedFrom {
				out.AddedTrips[key] = u1.AddedTrips[key]
			} else {
				out.AddedTrips[key] = u2.AddedTrips[key]
			}
		}
	}
	return nil
}

func tripExists(m map[TripKey]ir.TripIR, key TripKey) bool {
	_, ok := m[key]
	return ok
}
