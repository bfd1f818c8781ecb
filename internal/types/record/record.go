package record

// The five daily acts tracked by the app. Only these keys feed the
// streak and points math; any extra flag keys written by other features
// ride along untouched.
const (
	KeyFasted = "fasted"
	KeyQuran  = "quran"
	KeyDhikr  = "dhikr"
	KeyPrayer = "prayer"
	KeyMasjid = "masjid"
)

var ChecklistKeys = []string{KeyFasted, KeyQuran, KeyDhikr, KeyPrayer, KeyMasjid}

// DailyRecord is the tracked state for one civil date. Details holds
// per-category payloads owned by other subsystems (dhikr counters,
// Quran surah lists); this core only guarantees they survive rewrites.
type DailyRecord struct {
	Flags   map[string]bool           `json:"flags"`
	Details map[string]map[string]any `json:"details,omitempty"`
}

func NewDailyRecord() *DailyRecord {
	return &DailyRecord{
		Flags:   make(map[string]bool),
		Details: make(map[string]map[string]any),
	}
}

// CountTrue counts how many of the five checklist flags are set.
// Unknown keys never count.
func (r *DailyRecord) CountTrue() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, key := range ChecklistKeys {
		if r.Flags[key] {
			count++
		}
	}
	return count
}

// Perfect reports whether all five checklist flags are set.
func (r *DailyRecord) Perfect() bool {
	return r.CountTrue() == len(ChecklistKeys)
}

// Clone deep-copies the record so snapshots handed to readers can never
// alias store-owned state.
func (r *DailyRecord) Clone() *DailyRecord {
	out := NewDailyRecord()
	if r == nil {
		return out
	}
	for k, v := range r.Flags {
		out.Flags[k] = v
	}
	for category, payload := range r.Details {
		copied := make(map[string]any, len(payload))
		for k, v := range payload {
			copied[k] = v
		}
		out.Details[category] = copied
	}
	return out
}

// DatedRecord pairs a record with its civil date for sorted snapshots.
type DatedRecord struct {
	Date   string       `json:"date"`
	Record *DailyRecord `json:"record"`
}
