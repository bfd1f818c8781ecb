package points

import (
	"math"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/streak"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/record"
)

// Breakdown is the derived scoring for a single day. Never persisted;
// recomputed on demand from the record store.
type Breakdown struct {
	Total      int     `json:"total"`
	Base       int     `json:"base"`
	Multiplier float64 `json:"multiplier"`
	Bonus      int     `json:"bonus"`
}

// Lifetime is the aggregate over every recorded day, mapped onto the
// leveling curve.
type Lifetime struct {
	Total        int    `json:"total"`
	Level        int    `json:"level"`
	Label        string `json:"label"`
	Progress     int    `json:"progress"`
	NextLevelMin *int   `json:"next_level_min,omitempty"`
}

// Engine converts records into points. It holds no state beyond its
// scoring tables; every calculation is a pure function of its inputs.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// CalculateDayPoints scores one day given the streak length accumulated
// strictly before that day. An untouched day contributes nothing: no
// multiplier, no bonus.
func (e *Engine) CalculateDayPoints(rec *record.DailyRecord, streakBefore int) Breakdown {
	base := 0
	for _, key := range record.ChecklistKeys {
		if rec != nil && rec.Flags[key] {
			base += e.cfg.PointValues[key]
		}
	}

	// A day with no activity contributes nothing: no multiplier, no
	// bonus, all zeros.
	if base == 0 {
		return Breakdown{}
	}

	multiplier := e.multiplierFor(streakBefore)

	bonus := 0
	if rec.Perfect() {
		bonus = e.cfg.PerfectBonus
	}

	// Round once, before the bonus lands. The bonus is flat and never
	// multiplied.
	total := int(math.Round(float64(base)*multiplier)) + bonus

	return Breakdown{
		Total:      total,
		Base:       base,
		Multiplier: multiplier,
		Bonus:      bonus,
	}
}

// CalculateTotalPoints walks the snapshot in ascending date order and
// sums each day's total, recomputing the streak as of strictly before
// each day. Replaying the streak per day instead of carrying a running
// counter keeps the lifetime total reproducible from the record set
// alone, no matter when it is computed.
func (e *Engine) CalculateTotalPoints(snapshot []record.DatedRecord) Lifetime {
	getter := streak.NewSnapshotGetter(snapshot)

	total := 0
	for _, dr := range snapshot {
		total += e.CalculateDayPoints(dr.Record, streak.Before(getter, dr.Date)).Total
	}

	return e.levelFor(total)
}

func (e *Engine) multiplierFor(streakLen int) float64 {
	// Highest qualifying threshold, first match wins.
	for _, step := range e.cfg.MultiplierSteps {
		if streakLen >= step.MinStreak {
			return step.Factor
		}
	}
	return 1.0
}

func (e *Engine) levelFor(total int) Lifetime {
	out := Lifetime{Total: total, Progress: 100}

	for i, level := range e.cfg.Levels {
		if total < level.MinPoints {
			continue
		}
		out.Level = level.Number
		out.Label = level.Label
		if i == 0 {
			// Top of the curve: progress clamps to 100.
			return out
		}
		next := e.cfg.Levels[i-1]
		out.NextLevelMin = &next.MinPoints
		span := next.MinPoints - level.MinPoints
		out.Progress = int(math.Round(100 * float64(total-level.MinPoints) / float64(span)))
		return out
	}

	// A table without a zero rung would land here; treat it as the
	// bottom with no progress.
	out.Progress = 0
	return out
}
