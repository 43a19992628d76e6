package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/catalog"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/tracker"
)

// StateKey is the key the whole state is stored under.
const StateKey = "examTrackerData"

// KV is the durable key-value store the adapter writes to.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Adapter saves and loads tracker state.
type Adapter struct {
	kv   KV
	cat  *catalog.Catalog
	logf Logf
}

// NewAdapter returns an Adapter over kv.
func NewAdapter(kv KV, cat *catalog.Catalog, logf Logf) *Adapter {
	return &Adapter{kv: kv, cat: cat, logf: orNop(logf)}
}

// Save writes the whole state.
func (a *Adapter) Save(ctx context.Context, st tracker.State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}
	if err := a.kv.Put(ctx, StateKey, string(data)); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Load reads the stored state. A missing value yields defaults for every
// mode; read and parse failures are logged and also fall back to defaults.
func (a *Adapter) Load(ctx context.Context) tracker.State {
	raw, ok, err := a.kv.Get(ctx, StateKey)
	if err != nil {
		a.logf("failed to read stored state: %v\n", err)
		return tracker.DefaultState(a.cat)
	}
	if !ok {
		return tracker.DefaultState(a.cat)
	}
	return Decode([]byte(raw), a.cat, a.logf)
}

// Clear removes the stored state.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.kv.Delete(ctx, StateKey); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}

// AutoSaver writes the tracker state through a Debouncer after every mutation.
type AutoSaver struct {
	tr      *tracker.Tracker
	adapter *Adapter
	deb     *Debouncer
}

// NewAutoSaver hooks adapter to tr's change notifications.
func NewAutoSaver(tr *tracker.Tracker, adapter *Adapter, delay time.Duration) *AutoSaver {
	s := &AutoSaver{tr: tr, adapter: adapter}
	s.deb = NewDebouncer(delay, s.save)
	tr.OnChange(s.deb.Trigger)
	return s
}

func (s *AutoSaver) save() {
	if err := s.adapter.Save(context.Background(), s.tr.Snapshot()); err != nil {
		s.adapter.logf("%v\n", err)
	}
}

// Pending reports whether a write is scheduled.
func (s *AutoSaver) Pending() bool {
	return s.deb.Pending()
}

// Discard detaches from the tracker and drops a pending write.
func (s *AutoSaver) Discard() {
	s.tr.OnChange(nil)
	s.deb.Stop()
}

// Close detaches from the tracker and flushes a pending write.
func (s *AutoSaver) Close() {
	s.tr.OnChange(nil)
	s.deb.Flush()
}
