package streak

import (
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/dates"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/record"
)

const (
	// MinForStreak is how many of the five acts keep a day alive.
	MinForStreak = 3
	// MaxLookback bounds the backward walk.
	MaxLookback = 30
)

// Getter is the read side of the record store the evaluator walks.
type Getter interface {
	Get(date string) *record.DailyRecord
}

// Kept reports whether a record meets the completion threshold.
func Kept(rec *record.DailyRecord) bool {
	return rec.CountTrue() >= MinForStreak
}

// Current counts consecutive kept days ending yesterday. Today is
// excluded on purpose: the streak reflects completed days, while
// today's points already benefit from having reached that length.
func Current(store Getter, resolver *dates.Resolver) int {
	return Before(store, resolver.Today())
}

// Before counts consecutive kept days strictly earlier than date,
// walking backward one day at a time up to MaxLookback. Lifetime
// aggregation uses this so each historical day is scored against the
// streak it had actually earned by then.
func Before(store Getter, date string) int {
	count := 0
	day := dates.AddDays(date, -1)
	for count < MaxLookback {
		if !Kept(store.Get(day)) {
			break
		}
		count++
		day = dates.AddDays(day, -1)
	}
	return count
}

// SnapshotGetter adapts a sorted snapshot into a Getter so the points
// engine can replay history without touching the live store.
type SnapshotGetter map[string]*record.DailyRecord

func NewSnapshotGetter(snapshot []record.DatedRecord) SnapshotGetter {
	m := make(SnapshotGetter, len(snapshot))
	for _, dr := range snapshot {
		m[dr.Date] = dr.Record
	}
	return m
}

func (g SnapshotGetter) Get(date string) *record.DailyRecord {
	if rec, ok := g[date]; ok {
		return rec
	}
	return record.NewDailyRecord()
}
