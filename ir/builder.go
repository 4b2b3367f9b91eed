package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/transitdb/scheduled/ingest"
)

// DefaultWindowDays is the number of days a trip's activity mask covers
// when no explicit window is requested: "keep the next 32" days, matching
// the upstream default window.
const DefaultWindowDays = 32

// FromScheduleDefault builds a ScheduleIR starting "today" in loc, covering
// DefaultWindowDays days.
func FromScheduleDefault(sched *ingest.Schedule, loc *time.Location) (*ScheduleIR, error) {
	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return FromSchedule(sched, start, DefaultWindowDays)
}

// FromSchedule builds a ScheduleIR from an ingested bundle, computing each
// trip's date_mask over the half-open window [startDate, startDate+days).
// A trip with an all-zero mask (never active within the window) is
// dropped: the IR only represents trips relevant to the window.
func FromSchedule(sched *ingest.Schedule, startDate time.Time, days uint8) (*ScheduleIR, error) {
	if days == 0 || days > 32 {
		return nil, errors.Errorf("days must be in [1, 32], got %d", days)
	}

	routes := map[string]RouteIR{}
	for routeID := range sched.Routes {
		routes[routeID] = RouteIR{RouteID: routeID, Trips: map[string]TripIR{}}
	}

	startDateStr := formatDate(startDate)

	// routeIDsByStop accumulates the derived Stop.RouteIDs set as trips
	// are walked: a stop's RouteIDs is every route with at least one
	// trip (active within the window) that visits it.
	routeIDsByStop := map[string]map[string]bool{}

	for tripID, trip := range sched.Trips {
		mask, err := computeDateMask(sched, trip, startDate, days)
		if err != nil {
			return nil, errors.Wrapf(err, "computing date_mask for trip_id '%s'", tripID)
		}
		if mask == 0 {
			continue
		}

		stopTimes := map[uint32]StopTime{}
		for seq, st := range sched.StopTimes[tripID] {
			arr, err := clockToSeconds(st.ArrivalTime)
			if err != nil {
				return nil, errors.Wrapf(err, "arrival_time for trip_id '%s' seq %d", tripID, seq)
			}
			dep, err := clockToSeconds(st.DepartureTime)
			if err != nil {
				return nil, errors.Wrapf(err, "departure_time for trip_id '%s' seq %d", tripID, seq)
			}

			stopTimes[seq] = StopTime{
				StopID:        st.StopID,
				ArrivalTime:   arr,
				DepartureTime: dep,
				StopSequence:  seq,
			}

			byRoute := routeIDsByStop[st.StopID]
			if byRoute == nil {
				byRoute = map[string]bool{}
				routeIDsByStop[st.StopID] = byRoute
			}
			byRoute[trip.RouteID] = true
		}

		var direction *uint32
		if trip.DirectionID != nil {
			d := uint32(*trip.DirectionID)
			direction = &d
		}

		route, ok := routes[trip.RouteID]
		if !ok {
			// trips.txt is validated against routes.txt at ingest
			// time, so this would mean a builder-internal bug.
			return nil, errors.Errorf("trip_id '%s' references route_id '%s' not present in routes map", tripID, trip.RouteID)
		}
		route.Trips[tripID] = TripIR{
			TripID:        tripID,
			StopTimes:     stopTimes,
			Headsign:      trip.Headsign,
			ShapeID:       trip.ShapeID,
			Direction:     direction,
			MaskStartDate: startDateStr,
			DateMask:      mask,
		}
		routes[trip.RouteID] = route
	}

	shapes := map[string]Shape{}
	for shapeID, shape := range sched.Shapes {
		points := make([]Position, len(shape.Points))
		for i, p := range shape.Points {
			points[i] = Position{Lat: p.Lat, Lon: p.Lon}
		}
		shapes[shapeID] = Shape{ShapeID: shapeID, Points: points}
	}

	stops := map[string]Stop{}
	for stopID, stop := range sched.Stops {
		var pos *Position
		lat, errLat := strconv.ParseFloat(stop.Lat, 64)
		lon, errLon := strconv.ParseFloat(stop.Lon, 64)
		if errLat == nil && errLon == nil {
			pos = &Position{Lat: lat, Lon: lon}
		}

		var transfers []Transfer
		for _, t := range sched.Transfers[stopID] {
			transfers = append(transfers, Transfer{
				FromStopID:      t.FromStopID,
				ToStopID:        t.ToStopID,
				MinTransferTime: t.MinTransferTime,
			})
		}

		var routeIDs []string
		for routeID := range routeIDsByStop[stopID] {
			routeIDs = append(routeIDs, routeID)
		}
		sort.Strings(routeIDs)

		stops[stopID] = Stop{
			StopID:        stopID,
			Name:          stop.Name,
			ParentStopID:  stop.ParentStation,
			Position:      pos,
			TransfersFrom: transfers,
			RouteIDs:      routeIDs,
		}
	}

	return &ScheduleIR{
		Routes: routes,
		Shapes: shapes,
		Stops:  stops,
	}, nil
}

func formatDate(t time.Time) string {
	return fmt.Sprintf("%04d%02d%02d", t.Year(), t.Month(), t.Day())
}

// computeDateMask walks [startDate, startDate+days) and sets bit N of the
// mask whenever the trip's service is active on day N: its calendar.txt
// weekday flag is set and the date falls in [start_date, end_date], unless
// a calendar_dates.txt exception for that date overrides the outcome.
func computeDateMask(sched *ingest.Schedule, trip ingest.Trip, startDate time.Time, days uint8) (uint32, error) {
	service, hasService := sched.Services[trip.ServiceID]
	exceptions := sched.ServiceExceptions[trip.ServiceID]

	var mask uint32
	for day := uint8(0); day < days; day++ {
		date := startDate.AddDate(0, 0, int(day))
		dateStr := formatDate(date)

		active := false
		if hasService {
			active = weekdayActive(service, date.Weekday()) &&
				service.StartDate <= dateStr && dateStr <= service.EndDate
		}

		if exc, ok := exceptions[dateStr]; ok {
			active = exc.ExceptionType == ingest.ExceptionTypeAdded
		}

		if active {
			mask |= 1 << day
		}
	}

	return mask, nil
}

func weekdayActive(s ingest.Service, day time.Weekday) bool {
	switch day {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	case time.Sunday:
		return s.Sunday
	default:
		return false
	}
}

// clockToSeconds converts an "HH:MM:SS" stop_time clock (hour may exceed
// 23 for post-midnight trips) to seconds since midnight, as
// 3600*H + 60*M + S. This intentionally does not replicate a known bug in
// some upstream importers that instead sum part_i * 60^i positionally.
func clockToSeconds(clock string) (*uint32, error) {
	if clock == "" {
		return nil, nil
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return nil, errors.Errorf("expected H:MM:SS, got '%s'", clock)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, errors.Wrap(err, "parsing hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, errors.Wrap(err, "parsing minute")
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, errors.Wrap(err, "parsing second")
	}

	total := uint32(3600*h + 60*m + s)
	return &total, nil
}
