package dates

import "time"

// Guyana runs a fixed UTC-4 offset year round, no daylight saving.
// All calendar math is anchored here so streaks and store keys stay
// stable when a user travels with their device.
var guyanaTime = time.FixedZone("GYT", -4*60*60)

const Layout = "2006-01-02"

type Resolver struct {
	now func() time.Time
}

func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverWithClock pins the wall clock, used by tests.
func NewResolverWithClock(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Today returns the current civil date in Guyana time as YYYY-MM-DD.
func (r *Resolver) Today() string {
	return r.now().In(guyanaTime).Format(Layout)
}

// Offset returns the civil date deltaDays from today (negative = past).
func (r *Resolver) Offset(deltaDays int) string {
	return r.now().In(guyanaTime).AddDate(0, 0, deltaDays).Format(Layout)
}

// AddDays shifts an arbitrary YYYY-MM-DD date by deltaDays. A date that
// does not parse is returned unchanged; callers treat unknown dates as
// empty records anyway.
func AddDays(date string, deltaDays int) string {
	t, err := time.ParseInLocation(Layout, date, guyanaTime)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, deltaDays).Format(Layout)
}

// Valid reports whether date is a well-formed YYYY-MM-DD string.
func Valid(date string) bool {
	_, err := time.ParseInLocation(Layout, date, guyanaTime)
	return err == nil
}
