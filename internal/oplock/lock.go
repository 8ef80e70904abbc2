// Package oplock provides the advisory write lock serializing schema
// migrations and bulk catalog writes. Waiters are granted the lock in
// strict FIFO order; plain reads never take it.
package oplock

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brewlog/taplist/pkg/types"
)

const (
	drainPollInterval = 50 * time.Millisecond
	recentWaitsKept   = 10
)

// waiter is one queued acquisition request.
type waiter struct {
	id        string
	operation string
	enqueued  time.Time
	granted   chan struct{}
	abandoned bool
}

// Lock is the mutual-exclusion primitive guarding schema-mutating and
// bulk-write operations. It is advisory: correctness depends on writers
// acquiring it, not on the storage engine. A single shared instance is
// injected into the backend that owns the database handle.
type Lock struct {
	mu           sync.Mutex // guards all fields below
	holder       string
	grantSeq     uint64
	queue        []*waiter
	shuttingDown bool
	holdTimeout  time.Duration
	holdTimer    *time.Timer
	recentWaits  []time.Duration
	logger       *zap.Logger
}

// Metrics is a point-in-time observability snapshot.
type Metrics struct {
	CurrentOperation string
	QueueLength      int
	RecentWaits      []time.Duration
}

// New creates a Lock with the given hold timeout. A holder that fails to
// release within holdTimeout is force-released by the watchdog.
func New(holdTimeout time.Duration, logger *zap.Logger) *Lock {
	if logger == nil {
		logger = zap.NewNop()
	}
	if holdTimeout <= 0 {
		holdTimeout = types.DefaultLockHoldTimeout
	}
	return &Lock{
		holdTimeout: holdTimeout,
		logger:      logger,
	}
}

// Acquire blocks until the lock is granted or timeout elapses. Requests
// queue in FIFO order behind the current holder. Returns ErrShuttingDown
// once shutdown has begun, and ErrLockTimeout when the queue did not
// drain to this request in time; a timed-out request is removed from the
// queue and later grants skip it.
func (l *Lock) Acquire(operation string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = types.DefaultLockAcquireTimeout
	}

	l.mu.Lock()
	if l.shuttingDown {
		l.mu.Unlock()
		return types.ErrShuttingDown
	}
	if l.holder == "" && len(l.queue) == 0 {
		l.grantLocked(operation, 0)
		l.mu.Unlock()
		return nil
	}

	w := &waiter{
		id:        uuid.Must(uuid.NewV7()).String(),
		operation: operation,
		enqueued:  time.Now(),
		granted:   make(chan struct{}),
	}
	l.queue = append(l.queue, w)
	l.logger.Debug("write lock queued",
		zap.String("operation", operation),
		zap.String("request_id", w.id),
		zap.Int("queue_length", len(l.queue)))
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.granted:
		return nil
	case <-timer.C:
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-w.granted:
		// Granted in the race between timer fire and state lock; keep it.
		return nil
	default:
	}
	w.abandoned = true
	l.removeWaiterLocked(w)
	l.logger.Warn("write lock acquisition timed out",
		zap.String("operation", operation),
		zap.String("request_id", w.id),
		zap.Duration("waited", time.Since(w.enqueued)))
	return types.ErrLockTimeout
}

// Release clears the holder and synchronously grants the next queued
// request. Releasing by a caller that is not the holder is logged and
// ignored; this happens when the watchdog already force-released.
func (l *Lock) Release(operation string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder != operation {
		l.logger.Warn("write lock released by non-holder",
			zap.String("operation", operation),
			zap.String("holder", l.holder))
		return
	}
	l.clearHolderLocked()
	l.grantNextLocked()
}

// PrepareForShutdown rejects all future Acquire calls, then waits for the
// current holder to release. Reports whether the lock drained cleanly
// within timeout; false means it is unsafe to close the database handle.
func (l *Lock) PrepareForShutdown(timeout time.Duration) bool {
	l.mu.Lock()
	l.shuttingDown = true
	l.mu.Unlock()

	deadline := time.Now().Add(timeout)
	for {
		l.mu.Lock()
		idle := l.holder == ""
		l.mu.Unlock()
		if idle {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(drainPollInterval)
	}
}

// ResetShutdownState clears the shutdown flag after the database handle is
// reopened.
func (l *Lock) ResetShutdownState() {
	l.mu.Lock()
	l.shuttingDown = false
	l.mu.Unlock()
}

// IsLocked reports whether any operation currently holds the lock.
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder != ""
}

// QueueLength returns the number of requests waiting for the lock.
func (l *Lock) QueueLength() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// CurrentOperation returns the name of the current holder, or "".
func (l *Lock) CurrentOperation() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}

// Metrics returns an observability snapshot: holder, queue depth, and the
// most recent queue wait durations.
func (l *Lock) Metrics() Metrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	waits := make([]time.Duration, len(l.recentWaits))
	copy(waits, l.recentWaits)
	return Metrics{
		CurrentOperation: l.holder,
		QueueLength:      len(l.queue),
		RecentWaits:      waits,
	}
}

// grantLocked installs operation as the holder, records its queue wait,
// and arms the hold watchdog. Caller holds the state lock.
func (l *Lock) grantLocked(operation string, waited time.Duration) {
	l.holder = operation
	l.grantSeq++
	seq := l.grantSeq

	l.recentWaits = append(l.recentWaits, waited)
	if len(l.recentWaits) > recentWaitsKept {
		l.recentWaits = l.recentWaits[len(l.recentWaits)-recentWaitsKept:]
	}

	l.holdTimer = time.AfterFunc(l.holdTimeout, func() {
		l.forceRelease(seq)
	})
}

// forceRelease is the watchdog path: if the grant it was armed for is
// still the holder, release it and continue the queue. The buggy caller
// is not notified; it already moved on.
func (l *Lock) forceRelease(seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.grantSeq != seq || l.holder == "" {
		return
	}
	l.logger.Warn("write lock held past hold timeout, force releasing",
		zap.String("operation", l.holder),
		zap.Duration("hold_timeout", l.holdTimeout))
	l.holder = ""
	l.holdTimer = nil
	l.grantNextLocked()
}

func (l *Lock) clearHolderLocked() {
	if l.holdTimer != nil {
		l.holdTimer.Stop()
		l.holdTimer = nil
	}
	l.holder = ""
}

// grantNextLocked hands the lock to the oldest queued request that has
// not been abandoned. Caller holds the state lock.
func (l *Lock) grantNextLocked() {
	for len(l.queue) > 0 {
		w := l.queue[0]
		l.queue = l.queue[1:]
		if w.abandoned {
			continue
		}
		l.grantLocked(w.operation, time.Since(w.enqueued))
		close(w.granted)
		return
	}
}

func (l *Lock) removeWaiterLocked(target *waiter) {
	for i, w := range l.queue {
		if w == target {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			return
		}
	}
}
