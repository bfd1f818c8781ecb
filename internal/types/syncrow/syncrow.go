package syncrow

import (
	"encoding/json"
	"log"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/record"
)

// Row is the wire shape of one per-date record on the remote store:
// the five checklist flags flattened into columns plus the detail
// payloads carried as serialized JSON text.
type Row struct {
	Date    string `json:"date"`
	Fasted  bool   `json:"fasted"`
	Quran   bool   `json:"quran"`
	Dhikr   bool   `json:"dhikr"`
	Prayer  bool   `json:"prayer"`
	Masjid  bool   `json:"masjid"`
	Details string `json:"details,omitempty"`
}

// FromRecord flattens a daily record into its wire row.
func FromRecord(date string, rec *record.DailyRecord) Row {
	row := Row{
		Date:   date,
		Fasted: rec.Flags[record.KeyFasted],
		Quran:  rec.Flags[record.KeyQuran],
		Dhikr:  rec.Flags[record.KeyDhikr],
		Prayer: rec.Flags[record.KeyPrayer],
		Masjid: rec.Flags[record.KeyMasjid],
	}

	if len(rec.Details) > 0 {
		data, err := json.Marshal(rec.Details)
		if err != nil {
			log.Printf("syncrow: failed to serialize details for %s: %v", date, err)
		} else {
			row.Details = string(data)
		}
	}
	return row
}

// ToRecord expands a wire row back into a daily record. Malformed
// detail text degrades to no details rather than failing the merge.
func (r Row) ToRecord() *record.DailyRecord {
	rec := record.NewDailyRecord()
	rec.Flags[record.KeyFasted] = r.Fasted
	rec.Flags[record.KeyQuran] = r.Quran
	rec.Flags[record.KeyDhikr] = r.Dhikr
	rec.Flags[record.KeyPrayer] = r.Prayer
	rec.Flags[record.KeyMasjid] = r.Masjid

	if r.Details != "" {
		var details map[string]map[string]any
		if err := json.Unmarshal([]byte(r.Details), &details); err != nil {
			log.Printf("syncrow: dropping malformed details for %s: %v", r.Date, err)
		} else {
			rec.Details = details
		}
	}
	return rec
}
