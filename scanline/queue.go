package scanline

import "sync/atomic"

// QueueCapacity is the default number of lines held for the consumer.
const QueueCapacity = 1024

// Queue hands completed lines from the decoding callback to a consumer.
// Push never blocks: once the queue is full, new lines are dropped and
// counted. This keeps the real-time callback on schedule when the
// renderer falls behind.
type Queue struct {
	ch chan *Line

	pushed  uint64
	dropped uint64
}

// QueueStats is a snapshot of queue counters.
type QueueStats struct {
	Pushed  uint64 // Lines accepted into the queue
	Dropped uint64 // Lines rejected because the queue was full
	Len     int    // Lines currently waiting
	Cap     int
}

// NewQueue creates a queue with the given capacity (QueueCapacity if <= 0).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = QueueCapacity
	}
	return &Queue{
		ch: make(chan *Line, capacity),
	}
}

// Push offers a line to the consumer and reports whether it was accepted.
func (q *Queue) Push(l *Line) bool {
	select {
	case q.ch <- l:
		atomic.AddUint64(&q.pushed, 1)
		return true
	default:
		atomic.AddUint64(&q.dropped, 1)
		return false
	}
}

// Lines returns the receive side of the queue.
func (q *Queue) Lines() <-chan *Line {
	return q.ch
}

// Drain removes every waiting line without blocking and appends it to dst.
func (q *Queue) Drain(dst []*Line) []*Line {
	for {
		select {
		case l, ok := <-q.ch:
			if !ok {
				return dst
			}
			dst = append(dst, l)
		default:
			return dst
		}
	}
}

// Close ends the stream seen by the consumer. Push must not be called
// after Close.
func (q *Queue) Close() {
	close(q.ch)
}

// Len returns the number of waiting lines.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Pushed:  atomic.LoadUint64(&q.pushed),
		Dropped: atomic.LoadUint64(&q.dropped),
		Len:     len(q.ch),
		Cap:     cap(q.ch),
	}
}
