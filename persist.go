package quickleaf

import (
	"context"
	"sync"
	"time"

	"github.com/phlowdotdev/quickleaf/codec"
)

// defaultPurgeInterval is how often the idle worker deletes expired rows
// from the durable store.
const defaultPurgeInterval = time.Minute

type persistOpKind uint8

const (
	opUpsert persistOpKind = iota + 1
	opDelete
	opClear
)

// persistOp is one queued durable mutation. Values are encoded on the
// caller's thread before enqueue, so the worker never needs the codec.
type persistOp struct {
	kind      persistOpKind
	key       string
	blob      []byte
	createdAt int64
	ttlMillis int64 // < 0 => no TTL
}

// persister is the write-behind coordinator: an unbounded FIFO drained by a
// single worker goroutine, the sole writer to the durable store. Enqueue
// never blocks the caller; the queue is applied in order, one transaction
// per drained batch.
type persister[V any] struct {
	store *durableStore
	codec codec.Codec[V]
	clock Clock
	log   Logger
	hooks Hooks

	mu     sync.Mutex
	queue  []persistOp
	notify chan struct{}

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	purgeEvery time.Duration
}

func newPersister[V any](store *durableStore, cd codec.Codec[V], clock Clock, log Logger, hooks Hooks) *persister[V] {
	p := &persister[V]{
		store:      store,
		codec:      cd,
		clock:      clock,
		log:        log,
		hooks:      hooks,
		notify:     make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		purgeEvery: defaultPurgeInterval,
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *persister[V]) enqueue(op persistOp) {
	p.mu.Lock()
	p.queue = append(p.queue, op)
	p.mu.Unlock()
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// take swaps out the whole pending queue.
func (p *persister[V]) take() []persistOp {
	p.mu.Lock()
	ops := p.queue
	p.queue = nil
	p.mu.Unlock()
	return ops
}

func (p *persister[V]) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.purgeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-p.notify:
			p.flush()
		case <-ticker.C:
			if err := p.store.purgeExpired(p.clock.NowMillis()); err != nil {
				p.log.Warn("durable purge failed", Fields{"err": err})
			}
		case <-p.stopCh:
			// Final drain: everything enqueued before Close must commit.
			p.flush()
			return
		}
	}
}

func (p *persister[V]) flush() {
	ops := p.take()
	if len(ops) == 0 {
		return
	}
	if err := p.store.apply(ops); err != nil {
		// Best-effort write-behind: in-memory state stays authoritative.
		p.log.Error("durable batch commit failed", Fields{"ops": len(ops), "err": err})
		p.hooks.PersistWriteError(err)
	}
}

// Close signals the worker, waits for the final drain, and closes the store.
// Safe to call more than once.
func (p *persister[V]) Close(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.stopCh) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return p.store.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
