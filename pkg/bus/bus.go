// Package bus is the in-memory fan-out channel between a running
// generation and its stream subscribers. Each generation gets its own
// queue; publishing never blocks the pipeline, and a slow subscriber
// loses its oldest undelivered events rather than stalling anyone else.
package bus

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type subscriber struct {
	ch chan Event
}

type queue struct {
	subscribers map[int]*subscriber
	nextID      int

	// lastProgress is the high-water mark of published progress values,
	// so terminal failure events can carry it instead of regressing to 0.
	lastProgress int
}

// maxClosedTracked bounds the closed-generation memory. Beyond it the
// oldest entries are forgotten; a subscriber to a forgotten generation
// waits on an empty queue instead of getting an immediate end-of-stream.
const maxClosedTracked = 1024

// Bus routes events by generation ID.
type Bus struct {
	mu          sync.Mutex
	queues      map[uuid.UUID]*queue
	closed      map[uuid.UUID]bool
	closedOrder []uuid.UUID
	bufSize     int
	logger      *slog.Logger
}

// New creates a Bus with the given per-subscriber buffer depth.
func New(bufSize int, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		queues:  make(map[uuid.UUID]*queue),
		closed:  make(map[uuid.UUID]bool),
		bufSize: bufSize,
		logger:  logger.With("component", "bus"),
	}
}

// Create registers a queue for a generation. Creating an existing queue
// is a no-op.
func (b *Bus) Create(generationID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureQueueLocked(generationID)
}

func (b *Bus) ensureQueueLocked(generationID uuid.UUID) *queue {
	q, ok := b.queues[generationID]
	if !ok {
		q = &queue{subscribers: make(map[int]*subscriber)}
		b.queues[generationID] = q
	}
	return q
}

// Publish delivers an event to every current subscriber of the
// generation's queue. It never blocks: when a subscriber's buffer is
// full, its oldest undelivered event is dropped to make room. Publishing
// to a closed or unknown generation is a no-op.
func (b *Bus) Publish(generationID uuid.UUID, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[generationID]
	if !ok {
		b.logger.Debug("publish to unknown generation dropped", "generation_id", generationID)
		return
	}
	if ev.Type == EventProgress && ev.Progress != nil && ev.Progress.Progress > q.lastProgress {
		q.lastProgress = ev.Progress.Progress
	}

	for id, sub := range q.subscribers {
		select {
		case sub.ch <- ev:
		default:
			// Buffer full: evict the oldest and retry once.
			select {
			case <-sub.ch:
				b.logger.Warn("subscriber buffer full, dropped oldest event",
					"generation_id", generationID, "subscriber_id", id)
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}

// Subscribe attaches a new subscriber to a generation's queue, creating
// the queue if it does not exist yet. The returned cancel func detaches
// the subscriber and closes its channel; calling it more than once is
// safe. Subscribing to an already-closed generation returns a closed
// channel.
func (b *Bus) Subscribe(generationID uuid.UUID) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed[generationID] {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	q := b.ensureQueueLocked(generationID)
	id := q.nextID
	q.nextID++
	sub := &subscriber{ch: make(chan Event, b.bufSize)}
	q.subscribers[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if q, ok := b.queues[generationID]; ok {
				if s, ok := q.subscribers[id]; ok {
					delete(q.subscribers, id)
					close(s.ch)
				}
			}
		})
	}
	return sub.ch, cancel
}

// LastProgress returns the highest progress value published for a
// generation, zero for unknown or closed generations.
func (b *Bus) LastProgress(generationID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[generationID]; ok {
		return q.lastProgress
	}
	return 0
}

// Close tears down a generation's queue after its terminal event has
// been published, closing every subscriber channel. Closing an unknown
// or already-closed generation is a no-op.
func (b *Bus) Close(generationID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[generationID]
	if ok {
		for _, sub := range q.subscribers {
			close(sub.ch)
		}
		delete(b.queues, generationID)
	}
	b.markClosedLocked(generationID)
}

func (b *Bus) markClosedLocked(generationID uuid.UUID) {
	if b.closed[generationID] {
		return
	}
	b.closed[generationID] = true
	b.closedOrder = append(b.closedOrder, generationID)
	for len(b.closedOrder) > maxClosedTracked {
		delete(b.closed, b.closedOrder[0])
		b.closedOrder = b.closedOrder[1:]
	}
}
