package ingest

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type agencyCSV struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
}

func parseAgency(sched *Schedule, data io.Reader) (string, error) {
	rows := []*agencyCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return "", errors.Wrap(err, "unmarshaling agency csv")
	}

	if len(rows) == 0 {
		return "", errors.New("no agency record found")
	}

	// "If multiple agencies are specified in the dataset, each must have
	// the same agency_timezone."
	seenTz := map[string]bool{}
	for _, a := range rows {
		seenTz[a.Timezone] = true
	}
	if len(seenTz) != 1 {
		return "", errors.New("multiple distinct agency_timezone values")
	}

	tz := rows[0].Timezone
	if tz == "" {
		return "", errors.New("missing agency_timezone")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", errors.Wrapf(err, "agency_timezone '%s' is invalid", tz)
	}

	for _, a := range rows {
		if _, ok := sched.Agencies[a.ID]; ok {
			return "", errors.Errorf("duplicated agency_id: '%s'", a.ID)
		}
		if a.Name == "" {
			return "", errors.New("missing agency_name")
		}
		if a.URL == "" {
			return "", errors.New("missing agency_url")
		}

		sched.Agencies[a.ID] = Agency{
			ID:       a.ID,
			Name:     a.Name,
			URL:      a.URL,
			Timezone: tz,
		}
	}

	return tz, nil
}
