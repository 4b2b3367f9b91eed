package ingest

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type calendarCSV struct {
	ServiceID string `csv:"service_id"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
	Monday    int8   `csv:"monday"`
	Tuesday   int8   `csv:"tuesday"`
	Wednesday int8   `csv:"wednesday"`
	Thursday  int8   `csv:"thursday"`
	Friday    int8   `csv:"friday"`
	Saturday  int8   `csv:"saturday"`
	Sunday    int8   `csv:"sunday"`
}

func boolDay(name string, v int8) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Errorf("invalid %s value '%d'", name, v)
	}
}

// parseCalendar populates sched.Services from calendar.txt and returns the
// min start_date / max end_date seen, in "YYYYMMDD" form.
func parseCalendar(sched *Schedule, data io.Reader) (string, string, error) {
	rows := []*calendarCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return "", "", errors.Wrap(err, "unmarshaling calendar.txt")
	}

	var minDate, maxDate string

	for _, c := range rows {
		if c.ServiceID == "" {
			return "", "", errors.New("empty service_id in calendar.txt")
		}
		if _, ok := sched.Services[c.ServiceID]; ok {
			return "", "", errors.Errorf("repeated service_id '%s'", c.ServiceID)
		}

		mon, err := boolDay("monday", c.Monday)
		if err != nil {
			return "", "", err
		}
		tue, err := boolDay("tuesday", c.Tuesday)
		if err != nil {
			return "", "", err
		}
		wed, err := boolDay("wednesday", c.Wednesday)
		if err != nil {
			return "", "", err
		}
		thu, err := boolDay("thursday", c.Thursday)
		if err != nil {
			return "", "", err
		}
		fri, err := boolDay("friday", c.Friday)
		if err != nil {
			return "", "", err
		}
		sat, err := boolDay("saturday", c.Saturday)
		if err != nil {
			return "", "", err
		}
		sun, err := boolDay("sunday", c.Sunday)
		if err != nil {
			return "", "", err
		}

		if _, err := time.ParseInLocation("20060102", c.StartDate, time.UTC); err != nil {
			return "", "", errors.Wrap(err, "parsing start_date")
		}
		if _, err := time.ParseInLocation("20060102", c.EndDate, time.UTC); err != nil {
			return "", "", errors.Wrap(err, "parsing end_date")
		}

		if minDate == "" || c.StartDate < minDate {
			minDate = c.StartDate
		}
		if maxDate == "" || c.EndDate > maxDate {
			maxDate = c.EndDate
		}

		sched.Services[c.ServiceID] = Service{
			ServiceID: c.ServiceID,
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
			Monday:    mon,
			Tuesday:   tue,
			Wednesday: wed,
			Thursday:  thu,
			Friday:    fri,
			Saturday:  sat,
			Sunday:    sun,
		}
	}

	return minDate, maxDate, nil
}
