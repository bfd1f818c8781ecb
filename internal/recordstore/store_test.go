package recordstore

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/record"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "tracker.json"))
}

func TestGetMissingDateReturnsEmptyRecord(t *testing.T) {
	s := newTestStore(t)

	rec := s.Get("2026-03-01")
	if rec == nil {
		t.Fatal("Get must never return nil")
	}
	if rec.CountTrue() != 0 {
		t.Errorf("expected empty record, got %d flags set", rec.CountTrue())
	}
	if len(rec.Details) != 0 {
		t.Errorf("expected no details, got %v", rec.Details)
	}
}

func TestSetFlagIdempotent(t *testing.T) {
	s := newTestStore(t)

	first := s.SetFlag("2026-03-01", record.KeyPrayer, true)
	second := s.SetFlag("2026-03-01", record.KeyPrayer, true)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated SetFlag changed the record: %+v vs %+v", first, second)
	}
	if !second.Flags[record.KeyPrayer] {
		t.Error("prayer flag should be set")
	}
}

func TestSetFlagPreservesOtherState(t *testing.T) {
	s := newTestStore(t)

	s.SetFlag("2026-03-01", record.KeyPrayer, true)
	s.MergeDetail("2026-03-01", record.KeyQuran, map[string]any{"surahs": []any{"Al-Mulk"}})

	rec := s.SetFlag("2026-03-01", record.KeyFasted, true)

	if !rec.Flags[record.KeyPrayer] {
		t.Error("existing prayer flag was dropped")
	}
	if _, ok := rec.Details[record.KeyQuran]; !ok {
		t.Error("existing quran detail payload was dropped")
	}
}

func TestMergeDetailNonDestructive(t *testing.T) {
	s := newTestStore(t)

	s.MergeDetail("2026-03-01", record.KeyDhikr, map[string]any{"subhanallah": 33})
	rec := s.MergeDetail("2026-03-01", record.KeyDhikr, map[string]any{"alhamdulillah": 33})

	payload := rec.Details[record.KeyDhikr]
	if payload["subhanallah"] != 33 {
		t.Errorf("earlier key was cleared: %v", payload)
	}
	if payload["alhamdulillah"] != 33 {
		t.Errorf("merged key missing: %v", payload)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.json")

	s := New(path)
	s.SetFlag("2026-03-01", record.KeyMasjid, true)
	s.MergeDetail("2026-03-01", record.KeyDhikr, map[string]any{"count": float64(99)})

	reloaded := New(path)
	rec := reloaded.Get("2026-03-01")

	if !rec.Flags[record.KeyMasjid] {
		t.Error("masjid flag did not survive reload")
	}
	if rec.Details[record.KeyDhikr]["count"] != float64(99) {
		t.Errorf("detail payload did not survive reload: %v", rec.Details)
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	if got := len(s.AllDates()); got != 0 {
		t.Errorf("corrupt file should degrade to empty store, got %d records", got)
	}
}

func TestPersistenceFailureKeepsInMemoryState(t *testing.T) {
	// Point the store file inside a path that is itself a file, so
	// every write fails.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	s := New(filepath.Join(blocker, "tracker.json"))
	rec := s.SetFlag("2026-03-01", record.KeyPrayer, true)

	if !rec.Flags[record.KeyPrayer] {
		t.Error("mutation must apply in memory even when persistence fails")
	}
	if !s.Get("2026-03-01").Flags[record.KeyPrayer] {
		t.Error("in-memory state lost after failed persist")
	}
}

func TestAllDatesSortedSnapshot(t *testing.T) {
	s := newTestStore(t)
	s.SetFlag("2026-03-05", record.KeyPrayer, true)
	s.SetFlag("2026-03-01", record.KeyPrayer, true)
	s.SetFlag("2026-03-03", record.KeyPrayer, true)

	snapshot := s.AllDates()
	want := []string{"2026-03-01", "2026-03-03", "2026-03-05"}
	for i, dr := range snapshot {
		if dr.Date != want[i] {
			t.Fatalf("snapshot out of order: %v", snapshot)
		}
	}

	// Mutating the snapshot must not leak into the store.
	snapshot[0].Record.Flags[record.KeyFasted] = true
	if s.Get("2026-03-01").Flags[record.KeyFasted] {
		t.Error("snapshot aliases store-owned state")
	}
}

func TestReplaceDoesNotFireMutationHook(t *testing.T) {
	s := newTestStore(t)

	fired := 0
	s.SetOnMutate(func(date string) { fired++ })

	rec := record.NewDailyRecord()
	rec.Flags[record.KeyFasted] = true
	s.Replace("2026-03-01", rec)

	if fired != 0 {
		t.Errorf("Replace fired the mutation hook %d times", fired)
	}

	s.SetFlag("2026-03-01", record.KeyPrayer, true)
	if fired != 1 {
		t.Errorf("SetFlag should fire the hook once, got %d", fired)
	}
}
