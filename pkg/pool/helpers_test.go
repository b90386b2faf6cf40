package pool

import (
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/spawnpool/pkg/testutil"
)

// widget is a minimal pooled instance
type widget struct {
	id     int
	kind   string
	alive  atomic.Bool
	active bool
	resets int
	done   func()
}

// complete fires the wired completion signal, like a timer expiring
func (w *widget) complete() {
	if w.done != nil {
		w.done()
	}
}

// fakeLifecycle records every callback the pool makes
type fakeLifecycle struct {
	mu          sync.Mutex
	next        int
	constructed []*widget
	destroyed   []*widget

	// onReset runs inside Reset, after the widget is reset
	onReset func(w *widget)
}

func (f *fakeLifecycle) Construct(kind string) *widget {
	f.mu.Lock()
	f.next++
	w := &widget{id: f.next, kind: kind}
	f.constructed = append(f.constructed, w)
	f.mu.Unlock()

	w.alive.Store(true)
	return w
}

func (f *fakeLifecycle) Reset(w *widget) {
	w.active = false
	w.resets++
	if f.onReset != nil {
		f.onReset(w)
	}
}

func (f *fakeLifecycle) Valid(w *widget) bool {
	return w.alive.Load()
}

func (f *fakeLifecycle) Destroy(w *widget) {
	w.alive.Store(false)
	f.mu.Lock()
	f.destroyed = append(f.destroyed, w)
	f.mu.Unlock()
}

func (f *fakeLifecycle) Wire(w *widget, done func()) {
	w.done = done
}

func (f *fakeLifecycle) constructedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.constructed)
}

func (f *fakeLifecycle) destroyedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.destroyed)
}

// newTestPool returns a pool on a fresh fake lifecycle and an observer
// recording warnings and errors
func newTestPool(t *testing.T, kind string, target int) (*Pool[string, *widget], *fakeLifecycle, *observer.ObservedLogs) {
	t.Helper()
	log, logs := testutil.ObservedLogger(t, zapcore.WarnLevel)
	lc := &fakeLifecycle{}
	p := NewPool[string, *widget](kind, target, lc, WithRegistryName(t.Name()), WithLogger(log))
	return p, lc, logs
}

// newTestRegistry returns an empty registry on a fresh fake lifecycle
func newTestRegistry(t *testing.T) (*Registry[string, *widget], *fakeLifecycle, *observer.ObservedLogs) {
	t.Helper()
	log, logs := testutil.ObservedLogger(t, zapcore.WarnLevel)
	lc := &fakeLifecycle{}
	r := NewRegistry[string, *widget](lc, WithRegistryName(t.Name()), WithLogger(log))
	return r, lc, logs
}

// errorTypes returns the error_type field of every observed entry
func errorTypes(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.All() {
		if v, ok := e.ContextMap()["error_type"]; ok {
			out = append(out, v.(string))
		}
	}
	return out
}

var _ Lifecycle[string, *widget] = (*fakeLifecycle)(nil)

var nop = zap.NewNop()
