// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/phlowdotdev/quickleaf"
//	"github.com/phlowdotdev/quickleaf/codec"
//	"github.com/phlowdotdev/quickleaf/hooks/async"
//	"github.com/phlowdotdev/quickleaf/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    EventDropEvery: 10, // sample logs: ~every 10th dropped event
//	    EvictedEvery:   1,  // log every eviction
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := quickleaf.New[User](quickleaf.Options[User]{
//	    Capacity: 1000,
//	    Codec:    codec.JSON[User]{},
//	    Hooks:    hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"

	"github.com/phlowdotdev/quickleaf"
)

type Hooks struct {
	inner quickleaf.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ quickleaf.Hooks = (*Hooks)(nil)

func New(inner quickleaf.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) EventDropped(k quickleaf.EventKind, key string) {
	h.try(func() { h.inner.EventDropped(k, key) })
}
func (h *Hooks) Evicted(key string) { h.try(func() { h.inner.Evicted(key) }) }
func (h *Hooks) PersistEncodeError(key string, err error) {
	h.try(func() { h.inner.PersistEncodeError(key, err) })
}
func (h *Hooks) PersistWriteError(err error) {
	h.try(func() { h.inner.PersistWriteError(err) })
}
func (h *Hooks) RecoverySkippedRow(key string, err error) {
	h.try(func() { h.inner.RecoverySkippedRow(key, err) })
}
