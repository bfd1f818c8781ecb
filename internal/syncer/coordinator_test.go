package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/recordstore"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/record"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/syncrow"
)

type fakeRemote struct {
	mu       sync.Mutex
	rows     []syncrow.Row
	fetchErr error
	pushErr  error
	upserts  []syncrow.Row
}

func (f *fakeRemote) FetchAll(ctx context.Context) ([]syncrow.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.rows, nil
}

func (f *fakeRemote) Upsert(ctx context.Context, row syncrow.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.upserts = append(f.upserts, row)
	return nil
}

func (f *fakeRemote) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func (f *fakeRemote) lastUpsert() syncrow.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts[len(f.upserts)-1]
}

// gatedRemote parks FetchAll until release is closed, holding the
// login pull in flight for as long as a test needs.
type gatedRemote struct {
	fakeRemote
	release chan struct{}
}

func (g *gatedRemote) FetchAll(ctx context.Context) ([]syncrow.Row, error) {
	<-g.release
	return g.fakeRemote.FetchAll(ctx)
}

func newTestStore(t *testing.T) *recordstore.Store {
	t.Helper()
	return recordstore.New(filepath.Join(t.TempDir(), "tracker.json"))
}

func TestPullReplacesLocalWholesale(t *testing.T) {
	store := newTestStore(t)

	// Local-only state for a date the remote also knows about: a flag
	// the remote does not have and a detail payload under another
	// category. Pull is a full per-date overwrite, so both are
	// discarded. This is the documented sharp edge, not a bug.
	store.SetFlag("2026-03-01", record.KeyMasjid, true)
	store.MergeDetail("2026-03-01", record.KeyDhikr, map[string]any{"count": 33})

	remote := &fakeRemote{rows: []syncrow.Row{
		{Date: "2026-03-01", Fasted: true},
	}}

	c := NewCoordinator(store, remote, 10*time.Millisecond)
	defer c.Close()

	c.SetAuthenticated(true)
	c.WaitForPull()

	rec := store.Get("2026-03-01")
	if !rec.Flags[record.KeyFasted] {
		t.Error("remote fasted flag not applied")
	}
	if rec.Flags[record.KeyMasjid] {
		t.Error("local-only masjid flag should be overwritten by pull")
	}
	if len(rec.Details) != 0 {
		t.Errorf("local-only details should be overwritten by pull, got %v", rec.Details)
	}
}

func TestPullCarriesDetailPayloads(t *testing.T) {
	store := newTestStore(t)
	remote := &fakeRemote{rows: []syncrow.Row{
		{Date: "2026-03-02", Quran: true, Details: `{"quran":{"surahs":["Ya-Sin"]}}`},
	}}

	c := NewCoordinator(store, remote, 10*time.Millisecond)
	defer c.Close()

	c.SetAuthenticated(true)
	c.WaitForPull()

	rec := store.Get("2026-03-02")
	if _, ok := rec.Details["quran"]; !ok {
		t.Errorf("remote detail payload not restored: %v", rec.Details)
	}
}

func TestDebouncedPushCollapsesMutations(t *testing.T) {
	store := newTestStore(t)
	remote := &fakeRemote{}

	c := NewCoordinator(store, remote, 30*time.Millisecond)
	defer c.Close()

	c.SetAuthenticated(true)
	c.WaitForPull()

	store.SetFlag("2026-03-01", record.KeyPrayer, true)
	store.SetFlag("2026-03-01", record.KeyQuran, true)
	store.SetFlag("2026-03-01", record.KeyDhikr, true)

	time.Sleep(150 * time.Millisecond)

	if got := remote.upsertCount(); got != 1 {
		t.Fatalf("expected 1 collapsed push, got %d", got)
	}

	// The single push carries the state at window close, not the state
	// at the first mutation.
	row := remote.lastUpsert()
	if !row.Prayer || !row.Quran || !row.Dhikr {
		t.Errorf("push carried stale state: %+v", row)
	}
}

func TestSeparateDatesPushSeparately(t *testing.T) {
	store := newTestStore(t)
	remote := &fakeRemote{}

	c := NewCoordinator(store, remote, 20*time.Millisecond)
	defer c.Close()

	c.SetAuthenticated(true)
	c.WaitForPull()

	store.SetFlag("2026-03-01", record.KeyPrayer, true)
	store.SetFlag("2026-03-02", record.KeyPrayer, true)

	time.Sleep(120 * time.Millisecond)

	if got := remote.upsertCount(); got != 2 {
		t.Errorf("expected one push per date, got %d", got)
	}
}

func TestPushHeldUntilPullSettles(t *testing.T) {
	store := newTestStore(t)
	remote := &gatedRemote{release: make(chan struct{})}

	c := NewCoordinator(store, remote, 10*time.Millisecond)
	defer c.Close()

	c.SetAuthenticated(true)

	// Mutations while the login pull is parked must not schedule
	// pushes: a pre-merge push could clobber remote state the pull has
	// not applied yet.
	store.SetFlag("2026-03-01", record.KeyPrayer, true)
	time.Sleep(80 * time.Millisecond)
	if got := remote.upsertCount(); got != 0 {
		t.Fatalf("push fired while pull still in flight, got %d", got)
	}

	close(remote.release)
	c.WaitForPull()

	// With the pull settled the next mutation pushes as usual.
	store.SetFlag("2026-03-01", record.KeyQuran, true)
	time.Sleep(80 * time.Millisecond)
	if got := remote.upsertCount(); got != 1 {
		t.Errorf("expected exactly one push after pull settled, got %d", got)
	}
}

func TestNoPushWhileUnauthenticated(t *testing.T) {
	store := newTestStore(t)
	remote := &fakeRemote{}

	c := NewCoordinator(store, remote, 10*time.Millisecond)
	defer c.Close()

	store.SetFlag("2026-03-01", record.KeyPrayer, true)
	time.Sleep(80 * time.Millisecond)

	if got := remote.upsertCount(); got != 0 {
		t.Errorf("unauthenticated mutations must not push, got %d", got)
	}
}

func TestPullFailureKeepsLocalStateAndUnblocksNothing(t *testing.T) {
	store := newTestStore(t)
	store.SetFlag("2026-03-01", record.KeyPrayer, true)

	remote := &fakeRemote{fetchErr: errors.New("network down")}

	c := NewCoordinator(store, remote, 10*time.Millisecond)
	defer c.Close()

	c.SetAuthenticated(true)
	c.WaitForPull()

	if !store.Get("2026-03-01").Flags[record.KeyPrayer] {
		t.Error("failed pull must not roll back local state")
	}

	// Pushes still flow after the pull settles, even when it failed.
	store.SetFlag("2026-03-02", record.KeyQuran, true)
	time.Sleep(80 * time.Millisecond)
	if got := remote.upsertCount(); got != 1 {
		t.Errorf("expected push after settled pull, got %d", got)
	}
}

func TestPushFailureSwallowed(t *testing.T) {
	store := newTestStore(t)
	remote := &fakeRemote{pushErr: errors.New("503")}

	c := NewCoordinator(store, remote, 10*time.Millisecond)
	defer c.Close()

	c.SetAuthenticated(true)
	c.WaitForPull()

	store.SetFlag("2026-03-01", record.KeyPrayer, true)
	time.Sleep(80 * time.Millisecond)

	// Local state stays authoritative; nothing rolled back.
	if !store.Get("2026-03-01").Flags[record.KeyPrayer] {
		t.Error("failed push must not roll back local state")
	}
}

func TestSessionEndCancelsPendingPush(t *testing.T) {
	store := newTestStore(t)
	remote := &fakeRemote{}

	c := NewCoordinator(store, remote, 50*time.Millisecond)
	defer c.Close()

	c.SetAuthenticated(true)
	c.WaitForPull()

	store.SetFlag("2026-03-01", record.KeyPrayer, true)
	c.SetAuthenticated(false)

	time.Sleep(150 * time.Millisecond)
	if got := remote.upsertCount(); got != 0 {
		t.Errorf("pending push should be canceled on session end, got %d", got)
	}
}

func TestReauthenticationPullsAgain(t *testing.T) {
	store := newTestStore(t)
	remote := &fakeRemote{rows: []syncrow.Row{{Date: "2026-03-01", Fasted: true}}}

	c := NewCoordinator(store, remote, 10*time.Millisecond)
	defer c.Close()

	c.SetAuthenticated(true)
	c.WaitForPull()

	c.SetAuthenticated(false)

	remote.mu.Lock()
	remote.rows = []syncrow.Row{{Date: "2026-03-01", Fasted: true, Quran: true}}
	remote.mu.Unlock()

	c.SetAuthenticated(true)
	c.WaitForPull()

	if !store.Get("2026-03-01").Flags[record.KeyQuran] {
		t.Error("second session should pull the newer remote state")
	}
}
