package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/London")
	if err != nil {
		panic(err)
	}
}

// force timezone to be in London because the harvester sometimes runs in
// containers pinned to UTC which will cause disturbances when manipulating
// dates based on <time.Time>.Year()/Month()/Day()/Hour()/...
func Now() time.Time {
	return time.Now().In(Location)
}

// StartOfDay returns midnight of the calendar day t falls on, in London time.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}

// EndOfDay returns 23:59:59 of the calendar day t falls on, in London time.
func EndOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, Location)
}

// Yesterday returns the bounds of the calendar day before the one now falls
// on, which is the default harvesting window.
func Yesterday(now time.Time) (start, end time.Time) {
	prev := now.In(Location).AddDate(0, 0, -1)
	return StartOfDay(prev), EndOfDay(prev)
}
