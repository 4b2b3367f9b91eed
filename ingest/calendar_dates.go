package ingest

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type calendarDateCSV struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType int8   `csv:"exception_type"`
}

// parseCalendarDates populates sched.ServiceExceptions from
// calendar_dates.txt and returns the min/max date seen.
func parseCalendarDates(sched *Schedule, data io.Reader) (string, string, error) {
	rows := []*calendarDateCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return "", "", errors.Wrap(err, "unmarshaling calendar_dates.txt")
	}

	var minDate, maxDate string

	for _, cd := range rows {
		if cd.ExceptionType != int8(ExceptionTypeAdded) && cd.ExceptionType != int8(ExceptionTypeRemoved) {
			return "", "", errors.Errorf("illegal exception_type: '%d'", cd.ExceptionType)
		}

		if _, err := time.ParseInLocation("20060102", cd.Date, time.UTC); err != nil {
			return "", "", errors.Wrapf(err, "parsing date '%s'", cd.Date)
		}

		byDate, ok := sched.ServiceExceptions[cd.ServiceID]
		if !ok {
			byDate = map[string]ServiceException{}
			sched.ServiceExceptions[cd.ServiceID] = byDate
		}
		if _, ok := byDate[cd.Date]; ok {
			return "", "", errors.Errorf("duplicate service/date: '%s'/'%s'", cd.ServiceID, cd.Date)
		}
		byDate[cd.Date] = ServiceException{
			ServiceID:     cd.ServiceID,
			Date:          cd.Date,
			ExceptionType: ExceptionType(cd.ExceptionType),
		}

		if minDate == "" || cd.Date < minDate {
			minDate = cd.Date
		}
		if maxDate == "" || cd.Date > maxDate {
			maxDate = cd.Date
		}
	}

	return minDate, maxDate, nil
}
