package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/phlowdotdev/quickleaf"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all. Dropped events and evictions
	// fire on hot paths, so sample those in busy deployments.
	EventDropEvery uint64
	EvictedEvery   uint64
}

// Hooks logs cache callbacks through slog. Event drops and evictions are
// sampled; persistence and recovery failures are always logged.
type Hooks struct {
	l    *slog.Logger
	opts Options

	dropCtr  atomic.Uint64
	evictCtr atomic.Uint64
}

var _ quickleaf.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) EventDropped(kind quickleaf.EventKind, key string) {
	if h.l == nil || !sample(h.opts.EventDropEvery, &h.dropCtr) {
		return
	}
	h.l.Debug("quickleaf.event_dropped",
		"kind", kind.String(),
		"key", key)
}

func (h *Hooks) Evicted(key string) {
	if h.l == nil || !sample(h.opts.EvictedEvery, &h.evictCtr) {
		return
	}
	h.l.Debug("quickleaf.evicted",
		"key", key)
}

func (h *Hooks) PersistEncodeError(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("quickleaf.persist_encode_error",
		"key", key,
		"err", err)
}

func (h *Hooks) PersistWriteError(err error) {
	if h.l == nil {
		return
	}
	h.l.Error("quickleaf.persist_write_error",
		"err", err)
}

func (h *Hooks) RecoverySkippedRow(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("quickleaf.recovery_skipped_row",
		"key", key,
		"err", err)
}
