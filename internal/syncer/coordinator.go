package syncer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/recordstore"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/syncrow"
)

// RemoteStore is the narrow surface this core consumes from the remote
// storage service. Both calls are fire and forget from the caller's
// point of view: failures are logged and swallowed here, never
// surfaced to the store's mutation API.
type RemoteStore interface {
	FetchAll(ctx context.Context) ([]syncrow.Row, error)
	Upsert(ctx context.Context, row syncrow.Row) error
}

const (
	DefaultDebounce = 500 * time.Millisecond
	pushTimeout     = 10 * time.Second
)

var (
	syncPulls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_sync_pulls_total",
			Help: "Login pull/merge cycles by outcome",
		},
		[]string{"outcome"},
	)
	syncPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_sync_pushes_total",
			Help: "Debounced record pushes by outcome",
		},
		[]string{"outcome"},
	)
)

// InitMetrics registers the sync counters. Call this from main.go.
func InitMetrics() {
	prometheus.MustRegister(syncPulls)
	prometheus.MustRegister(syncPushes)
}

// Coordinator reconciles the local record store against the remote
// store: one pull/merge when a session becomes active, debounced
// pushes of locally mutated dates afterwards. The local store stays
// authoritative for the running session; the remote may lag.
type Coordinator struct {
	store    *recordstore.Store
	remote   RemoteStore
	debounce time.Duration

	mu       sync.Mutex
	authed   bool
	pullDone bool
	gen      int
	timers   map[string]*time.Timer

	// closed when the login pull settles (success or failure); tests
	// and shutdown hooks wait on it.
	pullSettled chan struct{}
}

func NewCoordinator(store *recordstore.Store, remote RemoteStore, debounce time.Duration) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	c := &Coordinator{
		store:    store,
		remote:   remote,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
	}
	store.SetOnMutate(c.OnLocalMutation)
	return c
}

// SetAuthenticated feeds the session signal from the auth collaborator.
// The false-to-true transition triggers exactly one pull/merge; pushes
// are held back until that pull settles so pre-merge local state can
// never clobber a just-pulled remote state. The true-to-false
// transition cancels pending pushes and re-arms the pull for the next
// session.
func (c *Coordinator) SetAuthenticated(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if active == c.authed {
		return
	}
	c.authed = active

	if !active {
		c.pullDone = false
		c.pullSettled = nil
		for date, timer := range c.timers {
			timer.Stop()
			delete(c.timers, date)
		}
		return
	}

	c.gen++
	settled := make(chan struct{})
	c.pullSettled = settled
	go c.pullAndMerge(c.gen, settled)
}

// OnLocalMutation schedules a debounced push of date's current record.
// Mutations inside the quiet window collapse into one push carrying
// whatever the record holds when the window closes. Nothing is
// scheduled while unauthenticated or while the login pull is still in
// flight; the next mutation (or the next login pull) is the recovery
// path, there is no retry queue.
func (c *Coordinator) OnLocalMutation(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.authed || !c.pullDone {
		return
	}

	if timer, ok := c.timers[date]; ok {
		timer.Stop()
	}
	c.timers[date] = time.AfterFunc(c.debounce, func() {
		c.push(date)
	})
}

// WaitForPull blocks until the login pull has settled, or returns
// immediately if no pull is in flight.
func (c *Coordinator) WaitForPull() {
	c.mu.Lock()
	settled := c.pullSettled
	done := c.pullDone
	c.mu.Unlock()

	if settled == nil || done {
		return
	}
	<-settled
}

// Close cancels all pending pushes.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for date, timer := range c.timers {
		timer.Stop()
		delete(c.timers, date)
	}
}

func (c *Coordinator) pullAndMerge(gen int, settled chan struct{}) {
	defer func() {
		c.mu.Lock()
		// A pull that outlived its session must not unlock pushes for
		// the next one.
		if c.gen == gen && c.authed {
			c.pullDone = true
		}
		c.mu.Unlock()
		close(settled)
	}()

	rows, err := c.remote.FetchAll(context.Background())
	if err != nil {
		log.Printf("syncer: login pull failed, keeping local state: %v", err)
		syncPulls.WithLabelValues("error").Inc()
		return
	}

	c.mu.Lock()
	stale := c.gen != gen || !c.authed
	c.mu.Unlock()
	if stale {
		return
	}

	// Remote wins wholesale on pull: it holds the union of all devices,
	// so each remote row fully replaces the local record for its date.
	for _, row := range rows {
		c.store.Replace(row.Date, row.ToRecord())
	}
	syncPulls.WithLabelValues("ok").Inc()
	log.Printf("syncer: merged %d remote rows", len(rows))
}

func (c *Coordinator) push(date string) {
	c.mu.Lock()
	delete(c.timers, date)
	authed := c.authed
	c.mu.Unlock()

	if !authed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	row := syncrow.FromRecord(date, c.store.Get(date))
	if err := c.remote.Upsert(ctx, row); err != nil {
		log.Printf("syncer: push for %s failed, will recover on next mutation or login: %v", date, err)
		syncPushes.WithLabelValues("error").Inc()
		return
	}
	syncPushes.WithLabelValues("ok").Inc()
}
