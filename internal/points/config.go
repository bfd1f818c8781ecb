package points

import "github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/record"

// MultiplierStep maps a minimum streak length to a factor. Steps are
// ordered descending; the first qualifying step wins.
type MultiplierStep struct {
	MinStreak int
	Factor    float64
}

// Level is one rung of the leveling curve. Levels are ordered by
// descending MinPoints; the current level is the highest rung whose
// MinPoints the lifetime total has reached.
type Level struct {
	MinPoints int
	Number    int
	Label     string
}

// Config holds the scoring tables. Values are tunable; the tie-break
// and rounding rules in the engine are not.
type Config struct {
	PointValues     map[string]int
	PerfectBonus    int
	MultiplierSteps []MultiplierStep
	Levels          []Level
}

// DefaultConfig is the production scoring table. Weights differ per act
// to reflect effort: a full fast outweighs a dhikr session.
func DefaultConfig() Config {
	return Config{
		PointValues: map[string]int{
			record.KeyFasted: 25,
			record.KeyMasjid: 20,
			record.KeyQuran:  15,
			record.KeyPrayer: 10,
			record.KeyDhikr:  5,
		},
		PerfectBonus: 50,
		MultiplierSteps: []MultiplierStep{
			{MinStreak: 21, Factor: 2.0},
			{MinStreak: 14, Factor: 1.8},
			{MinStreak: 7, Factor: 1.5},
			{MinStreak: 3, Factor: 1.2},
		},
		Levels: []Level{
			{MinPoints: 3000, Number: 6, Label: "Luminary"},
			{MinPoints: 1500, Number: 5, Label: "Devoted"},
			{MinPoints: 700, Number: 4, Label: "Steadfast"},
			{MinPoints: 300, Number: 3, Label: "Seeker"},
			{MinPoints: 100, Number: 2, Label: "Crescent"},
			{MinPoints: 0, Number: 1, Label: "New Moon"},
		},
	}
}
