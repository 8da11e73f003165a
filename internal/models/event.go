package models

import "time"

// Event is a time-boxed call for papers. Dates are calendar days in UTC.
type Event struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"startDate"`
	EndDate   time.Time `db:"end_date" json:"endDate"`
}

// AcceptsSubmissionsOn reports whether day falls on or before the event's end date.
func (e *Event) AcceptsSubmissionsOn(day time.Time) bool {
	return !DateOf(e.EndDate).Before(DateOf(day))
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
