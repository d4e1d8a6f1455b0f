package jarde

import (
	"time"

	"github.com/clearpath/warehouse-flow/internal/model"
)

const DateLayout = "2006-01-02"

// Window is a reconciliation range. Events reviewed at or before Start make
// up the starting balance; events in (Start, End] are window activity.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window for inclusive dates in loc: Start is midnight
// of the start date, End the last instant of the end date.
func NewWindow(start, end string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}

	s, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return Window{}, model.NewValidationError("start", "must be a date in YYYY-MM-DD format")
	}
	e, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return Window{}, model.NewValidationError("end", "must be a date in YYYY-MM-DD format")
	}
	if e.Before(s) {
		return Window{}, model.NewValidationError("end", "must not be before start")
	}

	return Window{Start: s, End: e.AddDate(0, 0, 1).Add(-time.Nanosecond)}, nil
}

func (w Window) contains(t time.Time) bool {
	return t.After(w.Start) && !t.After(w.End)
}
