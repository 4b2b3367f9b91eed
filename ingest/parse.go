package ingest

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"
)

// BundleMetadata summarizes a parsed bundle, independent of the IR built
// from it: mostly useful for logging around an Updater refresh.
type BundleMetadata struct {
	Timezone          string
	CalendarStartDate string
	CalendarEndDate   string
}

// required files a bundle must contain; calendar.txt and
// calendar_dates.txt are handled specially below (at least one required).
var requiredFiles = []string{
	"agency.txt",
	"routes.txt",
	"stops.txt",
	"trips.txt",
	"stop_times.txt",
}

var optionalFiles = []string{
	"calendar.txt",
	"calendar_dates.txt",
	"shapes.txt",
	"transfers.txt",
}

// ParseBundle decompresses and parses a GTFS-style zip archive into a
// Schedule. Files are read in dependency order: agency -> routes ->
// calendar(+dates) -> trips -> stops -> stop_times -> shapes ->
// transfers, since each later stage validates its foreign keys against
// the sets built by an earlier one.
func ParseBundle(buf []byte) (*Schedule, *BundleMetadata, error) {
	files := map[string]io.ReadCloser{}
	for _, name := range requiredFiles {
		files[name] = nil
	}
	for _, name := range optionalFiles {
		files[name] = nil
	}

	defer func() {
		for _, rc := range files {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, nil, errors.Wrap(err, "unzipping bundle")
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		name := path[len(path)-1]
		if _, found := files[name]; !found {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "opening %s", f.Name)
		}
		files[name] = rc
	}

	if files["calendar.txt"] == nil && files["calendar_dates.txt"] == nil {
		return nil, nil, errors.New("missing calendar.txt and calendar_dates.txt")
	}
	for _, name := range requiredFiles {
		if files[name] == nil {
			return nil, nil, errors.Errorf("missing %s", name)
		}
	}

	// LazyCSVReader survives sloppy quoting upstream producers emit; the
	// BOM reader strips a leading unicode BOM if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	sched := newSchedule()

	timezone, err := parseAgency(sched, files["agency.txt"])
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing agency.txt")
	}

	if err := parseRoutes(sched, files["routes.txt"], sched.Agencies); err != nil {
		return nil, nil, errors.Wrap(err, "parsing routes.txt")
	}

	var calStart, calEnd string
	if files["calendar.txt"] != nil {
		calStart, calEnd, err = parseCalendar(sched, files["calendar.txt"])
		if err != nil {
			return nil, nil, errors.Wrap(err, "parsing calendar.txt")
		}
	}
	if files["calendar_dates.txt"] != nil {
		cdMin, cdMax, err := parseCalendarDates(sched, files["calendar_dates.txt"])
		if err != nil {
			return nil, nil, errors.Wrap(err, "parsing calendar_dates.txt")
		}
		if calStart == "" || (cdMin != "" && cdMin < calStart) {
			calStart = cdMin
		}
		if calEnd == "" || cdMax > calEnd {
			calEnd = cdMax
		}
	}

	knownServices := map[string]bool{}
	for id := range sched.Services {
		knownServices[id] = true
	}
	for id := range sched.ServiceExceptions {
		knownServices[id] = true
	}

	if err := parseTrips(sched, files["trips.txt"], knownServices); err != nil {
		return nil, nil, errors.Wrap(err, "parsing trips.txt")
	}

	if err := parseStops(sched, files["stops.txt"]); err != nil {
		return nil, nil, errors.Wrap(err, "parsing stops.txt")
	}

	if err := parseStopTimes(sched, files["stop_times.txt"]); err != nil {
		return nil, nil, errors.Wrap(err, "parsing stop_times.txt")
	}

	if files["shapes.txt"] != nil {
		if err := parseShapes(sched, files["shapes.txt"]); err != nil {
			return nil, nil, errors.Wrap(err, "parsing shapes.txt")
		}
	}

	if files["transfers.txt"] != nil {
		if err := parseTransfers(sched, files["transfers.txt"]); err != nil {
			return nil, nil, errors.Wrap(err, "parsing transfers.txt")
		}
	}

	return sched, &BundleMetadata{
		Timezone:          timezone,
		CalendarStartDate: calStart,
		CalendarEndDate:   calEnd,
	}, nil
}
