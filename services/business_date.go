package services

import "time"

const (
	DateLayout = "2006-01-02"

	// dayBoundaryHour is the local hour a diet day starts at. Anything
	// logged before it belongs to the previous day.
	dayBoundaryHour = 3
)

// Clock returns the current instant.
type Clock func() time.Time

// BusinessDate maps t to the midnight of the diet day it belongs to in loc.
func BusinessDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	day := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	if lt.Hour() < dayBoundaryHour {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// Calendar pairs a clock with the service time zone. Intake creation and
// evaluation both resolve dates through it so they always agree.
type Calendar struct {
	now Clock
	loc *time.Location
}

func NewCalendar(now Clock, loc *time.Location) *Calendar {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{now: now, loc: loc}
}

// Now returns the current instant in the service time zone.
func (c *Calendar) Now() time.Time { return c.now().In(c.loc) }

func (c *Calendar) Location() *time.Location { return c.loc }

// DateOf returns the business date key (YYYY-MM-DD) of t.
func (c *Calendar) DateOf(t time.Time) string {
	return BusinessDate(t, c.loc).Format(DateLayout)
}

// Today returns the business date key of the current instant.
func (c *Calendar) Today() string { return c.DateOf(c.now()) }

// ParseDate validates a YYYY-MM-DD key.
func (c *Calendar) ParseDate(s string) (string, error) {
	t, err := time.ParseInLocation(DateLayout, s, c.loc)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
