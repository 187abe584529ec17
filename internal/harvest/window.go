package harvest

import (
	"fmt"
	"time"

	"orderharvest-backend/lib/timezone"
)

// Window is an inclusive [Start, End] harvesting window. A zero Start or
// End means that bound is open. Bounds are instants; in-window checks are
// done on instants, so upstream timezone offsets are honored rather than
// stripped (records are compared in Europe/London civil time by virtue of
// the bounds being built there).
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow is the previous calendar day in London, used whenever a
// run does not specify dates.
func DefaultWindow(now time.Time) Window {
	start, end := timezone.Yesterday(now)
	return Window{Start: start, End: end}
}

const dateLayout = "2006-01-02"

// ParseWindow builds a window from YYYY-MM-DD bounds. Either may be
// empty. A reversed range is swapped rather than rejected, operators
// fat-finger this constantly.
func ParseWindow(startDate, endDate string) (Window, error) {
	var w Window
	if startDate != "" {
		t, err := time.ParseInLocation(dateLayout, startDate, timezone.Location)
		if err != nil {
			return Window{}, fmt.Errorf("parse start date: %w", err)
		}
		w.Start = timezone.StartOfDay(t)
	}
	if endDate != "" {
		t, err := time.ParseInLocation(dateLayout, endDate, timezone.Location)
		if err != nil {
			return Window{}, fmt.Errorf("parse end date: %w", err)
		}
		w.End = timezone.EndOfDay(t)
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End) {
		w.Start, w.End = timezone.StartOfDay(w.End), timezone.EndOfDay(w.Start)
	}
	return w, nil
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// Days splits the window into per-calendar-day windows, which is the
// granularity batch outcomes are reported at. An open-ended window yields
// itself as a single entry.
func (w Window) Days() []Window {
	if w.Start.IsZero() || w.End.IsZero() {
		return []Window{w}
	}
	var out []Window
	for day := timezone.StartOfDay(w.Start); !day.After(w.End); day = day.AddDate(0, 0, 1) {
		out = append(out, Window{
			Start: day,
			End:   timezone.EndOfDay(day),
		})
	}
	return out
}

// Label renders a window's first day for outcome reporting and upstream
// date params.
func (w Window) Label() string {
	if w.Start.IsZero() {
		return "open"
	}
	return w.Start.In(timezone.Location).Format(dateLayout)
}

// EndLabel renders the window's last day. For the per-day windows the
// batch works in this equals Label.
func (w Window) EndLabel() string {
	if w.End.IsZero() {
		return w.Label()
	}
	return w.End.In(timezone.Location).Format(dateLayout)
}

// Filter drops records outside the window. Records whose timestamp could
// not be resolved never get here, the normalizer already rejected them.
func (w Window) Filter(records []Record) []Record {
	out := records[:0:0]
	for _, r := range records {
		if w.Contains(r.OrderTime) {
			out = append(out, r)
		}
	}
	return out
}

// ParseUpstreamTime parses the timestamp formats the platforms emit:
// ISO-8601 (offset-bearing or not) with a plain "YYYY-MM-DD HH:MM:SS"
// fallback. Offset-less values are interpreted as London wall-clock time.
func ParseUpstreamTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(timezone.Location), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, timezone.Location); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, timezone.Location); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
