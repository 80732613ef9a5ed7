package event

import "time"

// Record is one emitted event as held in the history ring buffer.
// History is bounded and in-memory only; it is never persisted.
type Record struct {
	Event     Name      `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultHistoryCapacity bounds the ring buffer unless overridden.
const DefaultHistoryCapacity = 100

// ring is a fixed-capacity buffer that evicts oldest-first.
// Not safe for concurrent use; the Dispatcher guards it with its mutex.
type ring struct {
	records  []Record
	capacity int
	head     int // index of oldest record
	size     int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &ring{
		records:  make([]Record, capacity),
		capacity: capacity,
	}
}

// add appends a record, evicting the oldest once full.
func (r *ring) add(rec Record) {
	if r.size < r.capacity {
		r.records[(r.head+r.size)%r.capacity] = rec
		r.size++
		return
	}
	r.records[r.head] = rec
	r.head = (r.head + 1) % r.capacity
}

// snapshot returns the buffered records in chronological order.
func (r *ring) snapshot() []Record {
	out := make([]Record, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.records[(r.head+i)%r.capacity])
	}
	return out
}

// clear empties the buffer.
func (r *ring) clear() {
	r.head = 0
	r.size = 0
}

// HistoryQuery filters the history buffer.
// Zero values mean "no filter" for their field.
type HistoryQuery struct {
	// Pattern is an exact name or "ns:*" wildcard.
	Pattern string

	// Since keeps only records with Timestamp >= Since.
	Since time.Time

	// Limit keeps only the most recent Limit records after filtering.
	Limit int
}

// History returns the buffered records matching q, oldest first.
// Returns a SubscriptionError if the pattern is malformed.
func (d *Dispatcher) History(q HistoryQuery) ([]Record, error) {
	var pattern *Name
	if q.Pattern != "" {
		parsed, err := ParseName(q.Pattern)
		if err != nil {
			return nil, err
		}
		pattern = &parsed
	}

	d.mu.Lock()
	records := d.history.snapshot()
	d.mu.Unlock()

	filtered := records[:0:0]
	for _, rec := range records {
		if pattern != nil && !pattern.Matches(rec.Event) {
			continue
		}
		if !q.Since.IsZero() && rec.Timestamp.Before(q.Since) {
			continue
		}
		filtered = append(filtered, rec)
	}

	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = filtered[len(filtered)-q.Limit:]
	}
	return filtered, nil
}

// ReplayFunc receives one history record during Replay.
type ReplayFunc func(data any, event Name, timestamp time.Time)

// Replay iterates the history buffer chronologically, invoking fn for
// every record matching the optional pattern. A panicking fn is recovered
// per record and does not abort replay of subsequent records.
//
// Replay walks the buffer only; live listeners are not invoked.
func (d *Dispatcher) Replay(fn ReplayFunc, pattern ...string) error {
	if fn == nil {
		return NewBadCallbackError("")
	}

	q := HistoryQuery{}
	if len(pattern) > 0 {
		q.Pattern = pattern[0]
	}
	records, err := d.History(q)
	if err != nil {
		return err
	}

	for _, rec := range records {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("replay callback panicked",
						"event", rec.Event.String(), "panic", r)
				}
			}()
			fn(rec.Data, rec.Event, rec.Timestamp)
		}()
	}
	return nil
}

// ClearHistory empties the ring buffer. Live listeners are unaffected.
func (d *Dispatcher) ClearHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history.clear()
}
