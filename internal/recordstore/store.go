package recordstore

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/record"
)

// Store is the durable, local-first mapping from civil date to daily
// record. It is the single source of truth for every read; the remote
// store is reconciled into it, never read directly by derivation logic.
//
// Every mutation persists the full mapping synchronously. Persistence
// is best effort: a failed write keeps the in-memory state mutated and
// the user keeps working, at the cost of possibly not surviving a
// restart.
type Store struct {
	mu       sync.Mutex
	path     string
	records  map[string]*record.DailyRecord
	onMutate func(date string)
}

// New loads the store file at path eagerly. A missing, unreadable or
// corrupt file degrades to an empty store rather than failing startup.
func New(path string) *Store {
	s := &Store{
		path:    path,
		records: make(map[string]*record.DailyRecord),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("recordstore: could not read %s, starting empty: %v", path, err)
		}
		return s
	}

	var loaded map[string]*record.DailyRecord
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Printf("recordstore: corrupt store file %s, starting empty: %v", path, err)
		return s
	}

	for date, rec := range loaded {
		if rec == nil {
			continue
		}
		if rec.Flags == nil {
			rec.Flags = make(map[string]bool)
		}
		if rec.Details == nil {
			rec.Details = make(map[string]map[string]any)
		}
		s.records[date] = rec
	}
	return s
}

// SetOnMutate registers a hook invoked after each successful local
// mutation with the mutated date. The sync coordinator uses this to
// schedule debounced pushes. Replace merges from the pull path do not
// fire the hook.
func (s *Store) SetOnMutate(fn func(date string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutate = fn
}

// Get returns a copy of the record for date, or an empty record if none
// exists. It never fails.
func (s *Store) Get(date string) *record.DailyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[date].Clone()
}

// SetFlag idempotently sets one checklist flag for date, preserving all
// other flags and every detail payload, then persists.
func (s *Store) SetFlag(date, key string, value bool) *record.DailyRecord {
	s.mu.Lock()
	rec := s.ensureLocked(date)
	rec.Flags[key] = value
	s.persistLocked()
	hook := s.onMutate
	out := rec.Clone()
	s.mu.Unlock()

	if hook != nil {
		hook(date)
	}
	return out
}

// MergeDetail shallow-merges partial into the named category's detail
// payload for date, creating the payload if absent. Keys not present in
// partial are never cleared.
func (s *Store) MergeDetail(date, category string, partial map[string]any) *record.DailyRecord {
	s.mu.Lock()
	rec := s.ensureLocked(date)
	payload, ok := rec.Details[category]
	if !ok {
		payload = make(map[string]any)
		rec.Details[category] = payload
	}
	for k, v := range partial {
		payload[k] = v
	}
	s.persistLocked()
	hook := s.onMutate
	out := rec.Clone()
	s.mu.Unlock()

	if hook != nil {
		hook(date)
	}
	return out
}

// Replace overwrites the full record for date. Only the login pull/merge
// path uses this: remote rows win wholesale, and the overwrite must not
// echo back out as a push.
func (s *Store) Replace(date string, rec *record.DailyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[date] = rec.Clone()
	s.persistLocked()
}

// AllDates returns a point-in-time snapshot of every record sorted by
// civil date ascending.
func (s *Store) AllDates() []record.DatedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]record.DatedRecord, 0, len(s.records))
	for date, rec := range s.records {
		out = append(out, record.DatedRecord{Date: date, Record: rec.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (s *Store) ensureLocked(date string) *record.DailyRecord {
	rec, ok := s.records[date]
	if !ok {
		rec = record.NewDailyRecord()
		s.records[date] = rec
	}
	return rec
}

func (s *Store) persistLocked() {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		log.Printf("recordstore: failed to serialize store: %v", err)
		return
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			log.Printf("recordstore: failed to create %s: %v", dir, err)
			return
		}
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		log.Printf("recordstore: failed to persist store: %v", err)
	}
}
