// Package scheduler runs the single in-order save queue. Every mutation
// enqueues a save intent carrying the full current snapshot; one worker
// applies intents in issue order.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/dailytodo/internal/gateway"
	"github.com/sandeepkv93/dailytodo/internal/model"
)

var (
	ErrStopped    = errors.New("scheduler: queue stopped")
	ErrNotStarted = errors.New("scheduler: queue not started")
)

// Saver applies one snapshot write. *gateway.Gateway satisfies it.
type Saver interface {
	Save(ctx context.Context, snap model.Snapshot) gateway.SaveReport
}

type Intent struct {
	Seq      uint64
	Snapshot model.Snapshot
}

func (i Intent) key() string {
	return i.Snapshot.UserID + "_" + i.Snapshot.LastSavedDate.String()
}

// Result describes one applied write. Superseded counts the older intents
// for the same key that were folded into it.
type Result struct {
	Seq        uint64
	Snapshot   model.Snapshot
	Report     gateway.SaveReport
	Superseded int
}

type waiter struct {
	seq uint64
	ch  chan struct{}
}

type Queue struct {
	saver  Saver
	logger *log.Logger

	mu      sync.Mutex
	pending []Intent
	waiters []waiter
	seq     uint64
	applied uint64
	started bool
	stopped bool

	out    chan Result
	wakeup chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	processed uint64
	coalesced uint64
	dropped   uint64
	lost      uint64
}

func NewQueue(saver Saver, bufferSize int, logger *log.Logger) *Queue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Queue{
		saver:  saver,
		logger: logger,
		out:    make(chan Result, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// C delivers results of applied writes. Results are dropped, never blocked
// on, when the consumer falls behind. The channel closes after Stop.
func (q *Queue) C() <-chan Result {
	return q.out
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true
	go q.loop()
}

// Stop applies every pending intent and then stops the worker.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	if !q.started {
		close(q.out)
		close(q.doneCh)
		q.mu.Unlock()
		return
	}
	close(q.stopCh)
	q.mu.Unlock()
	<-q.doneCh
}

// Enqueue records a save of snap and returns its sequence number.
func (q *Queue) Enqueue(snap model.Snapshot) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return 0, ErrStopped
	}
	q.seq++
	q.pending = append(q.pending, Intent{Seq: q.seq, Snapshot: snap.Clone()})
	q.signalWakeup()
	return q.seq, nil
}

// Flush blocks until every intent enqueued before the call has been applied.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.applied >= q.seq {
		q.mu.Unlock()
		return nil
	}
	if !q.started {
		q.mu.Unlock()
		return ErrNotStarted
	}
	w := waiter{seq: q.seq, ch: make(chan struct{})}
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()

	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.seq - q.applied)
}

func (q *Queue) Processed() uint64 { return atomic.LoadUint64(&q.processed) }

func (q *Queue) Coalesced() uint64 { return atomic.LoadUint64(&q.coalesced) }

func (q *Queue) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }

// NotDurable counts applied writes that no backend accepted.
func (q *Queue) NotDurable() uint64 { return atomic.LoadUint64(&q.lost) }

func (q *Queue) loop() {
	defer close(q.doneCh)
	defer close(q.out)

	for {
		intent, superseded, ok := q.next()
		if ok {
			q.apply(intent, superseded)
			continue
		}
		select {
		case <-q.wakeup:
		case <-q.stopCh:
			for {
				intent, superseded, ok := q.next()
				if !ok {
					return
				}
				q.apply(intent, superseded)
			}
		}
	}
}

// next pops the head intent, folding in any directly following intents for
// the same key. Only the newest of such a run needs writing.
func (q *Queue) next() (Intent, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Intent{}, 0, false
	}
	head := q.pending[0]
	n := 1
	for n < len(q.pending) && q.pending[n].key() == head.key() {
		head = q.pending[n]
		n++
	}
	q.pending = q.pending[n:]
	return head, n - 1, true
}

func (q *Queue) apply(intent Intent, superseded int) {
	// In-flight writes are never cancelled.
	report := q.saver.Save(context.Background(), intent.Snapshot)

	atomic.AddUint64(&q.processed, 1)
	atomic.AddUint64(&q.coalesced, uint64(superseded))
	if !report.Durable() {
		atomic.AddUint64(&q.lost, 1)
		q.logger.WithFields(log.Fields{
			"seq":    intent.Seq,
			"remote": report.Remote.String(),
			"local":  report.Local.String(),
		}).Error("save not durable; changes may not survive a reload")
	}

	q.markApplied(intent.Seq)

	select {
	case q.out <- Result{Seq: intent.Seq, Snapshot: intent.Snapshot, Report: report, Superseded: superseded}:
	default:
		atomic.AddUint64(&q.dropped, 1)
	}
}

func (q *Queue) markApplied(seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.applied = seq
	kept := q.waiters[:0]
	for _, w := range q.waiters {
		if w.seq <= seq {
			close(w.ch)
			continue
		}
		kept = append(kept, w)
	}
	q.waiters = kept
}

func (q *Queue) signalWakeup() {
	select {
	case q.wakeup <- struct{}{}:
	default:
	}
}
