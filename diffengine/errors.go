package diffengine

import "github.com/pkg/errors"

// ErrImpossibleMask is returned by Combine when the (r1, r2, a1, a2)
// membership tuple for some ID describes a state the diff algebra cannot
// produce from two well-formed updates (an ID can't be both freshly-added
// in one update with no prior removal, and simultaneously carried as a
// straight removal in the other, etc). Seeing it means an Update was
// constructed by hand rather than by Diff, or two unrelated updates were
// combined.
var ErrImpossibleMask = errors.New("impossible combination of diff membership flags")

// ErrRouteMissing is returned by Apply when an update references a
// route_id that the base snapshot doesn't contain.
var ErrRouteMissing = errors.New("update references a route not present in base schedule")

// ErrRouteSetChanged is returned by Diff when curr and prev don't carry
// the same set of route_ids. The Diff Engine never emits route-level
// adds or removes; a new or vanished route_id between two snapshots is a
// data error, not an ordinary trip-level change.
var ErrRouteSetChanged = errors.New("route set changed between snapshots")
