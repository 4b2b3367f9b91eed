package ir

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// holidayCalendar is diagnostic-only: it never influences DateMask, which
// follows calendar.txt/calendar_dates.txt exactly per computeDateMask. It
// exists so an Updater can log when a refresh window crosses a US federal
// holiday, since that's often when transit agencies push schedule
// exceptions.
type holidayCalendar struct {
	cal *cal.BusinessCalendar
}

func newHolidayCalendar() *holidayCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.MemorialDay,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
		us.Juneteenth,
	)
	return &holidayCalendar{cal: c}
}

func (h *holidayCalendar) isHoliday(at time.Time) bool {
	_, observed, _ := h.cal.IsHoliday(at)
	return observed
}

// HolidaysInWindow returns every date in [start, start+days) on which one
// of the holidays registered in newHolidayCalendar is observed. Washington's
// Birthday, Columbus Day and Veterans Day are not registered. No package in
// this module calls it.
func HolidaysInWindow(start time.Time, days uint8) []time.Time {
	h := newHolidayCalendar()

	var out []time.Time
	for day := uint8(0); day < days; day++ {
		date := start.AddDate(0, 0, int(day))
		if h.isHoliday(date) {
			out = append(out, date)
		}
	}
	return out
}
