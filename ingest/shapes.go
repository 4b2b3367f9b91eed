package ingest

import (
	"io"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type shapeCSV struct {
	ID       string `csv:"shape_id"`
	Lat      string `csv:"shape_pt_lat"`
	Lon      string `csv:"shape_pt_lon"`
	Sequence int    `csv:"shape_pt_sequence"`
}

// parseShapes is new relative to the teacher's parser set: shapes.txt has
// no consumer in the teacher's query-time feature set, but the wire
// schedule carries shape polylines directly (Section 6.2), so points must
// be ordered by shape_pt_sequence per shape_id at ingest time.
func parseShapes(sched *Schedule, data io.Reader) error {
	rows := []*shapeCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "unmarshaling shapes.txt")
	}

	type point struct {
		seq int
		pos Position
	}
	byShape := map[string][]point{}

	for _, r := range rows {
		if r.ID == "" {
			return errors.New("empty shape_id")
		}
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing shape_pt_lat for shape_id '%s'", r.ID)
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing shape_pt_lon for shape_id '%s'", r.ID)
		}

		byShape[r.ID] = append(byShape[r.ID], point{
			seq: r.Sequence,
			pos: Position{Lat: lat, Lon: lon},
		})
	}

	for shapeID, points := range byShape {
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].seq < points[j].seq
		})

		seen := map[int]bool{}
		ordered := make([]Position, 0, len(points))
		for _, p := range points {
			if seen[p.seq] {
				return errors.Errorf("duplicate shape_pt_sequence %d for shape_id '%s'", p.seq, shapeID)
			}
			seen[p.seq] = true
			ordered = append(ordered, p.pos)
		}

		sched.Shapes[shapeID] = Shape{ID: shapeID, Points: ordered}
	}

	return nil
}
