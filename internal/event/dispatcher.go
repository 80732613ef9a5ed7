package event

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/text/unicode/norm"
)

// Callback handles a dispatched event. Wildcard listeners receive the
// concrete event name that fired.
type Callback func(data any, event Name)

// Clock abstracts wall time for deterministic history timestamps in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// listener is one registered callback with its delivery metadata.
// fired is only meaningful for once listeners and is guarded by the
// dispatcher mutex: it is the claim that guarantees exactly-once delivery
// even when a callback emits the same event again mid-dispatch.
type listener struct {
	pattern  Name
	fn       Callback
	fnPtr    uintptr
	priority int
	once     bool
	fired    bool
	seq      int64
}

// Dispatcher is a namespaced publish/subscribe event hub with wildcard
// matching, priority-ordered delivery, bounded history, and replay.
//
// Thread-safety model:
//   - The listener registry, namespace set, and history ring are mutated
//     only under the dispatcher mutex.
//   - Dispatch snapshots the delivery set under the lock, then invokes
//     callbacks OUTSIDE it, so callbacks may freely call On/Off/Emit.
//   - EmitAsync defers the whole emit to a single background worker
//     draining a FIFO queue, preserving submission order.
//
// INVARIANTS:
//   - Every Emit is recorded in history, listeners or not.
//   - Delivery order is descending priority, registration order within
//     equal priority.
//   - A once listener fires at most one time, ever.
type Dispatcher struct {
	mu         sync.Mutex
	logger     *slog.Logger
	clock      Clock
	namespaces map[string]bool
	listeners  map[Name][]*listener
	nextSeq    int64
	history    *ring

	queue   *emitQueue
	wg      sync.WaitGroup
	emitted atomic.Int64
}

// DispatcherOption configures a Dispatcher at construction time.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger injects a structured logger for warnings and
// recovered listener failures. A nil logger silently discards.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithDispatcherClock injects a clock for history timestamps.
func WithDispatcherClock(c Clock) DispatcherOption {
	return func(d *Dispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithHistoryCapacity bounds the history ring buffer.
func WithHistoryCapacity(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.history = newRing(n)
		}
	}
}

// NewDispatcher creates a Dispatcher and starts its async dispatch worker.
// Call Close to drain pending async emits and stop the worker.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		logger:     slog.Default(),
		clock:      systemClock{},
		namespaces: make(map[string]bool),
		listeners:  make(map[Name][]*listener),
		history:    newRing(DefaultHistoryCapacity),
		queue:      newEmitQueue(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d.wg.Add(1)
	go d.runWorker()
	return d
}

// Close stops accepting async emits, drains the pending queue, and waits
// for the worker to exit. Synchronous Emit keeps working after Close.
func (d *Dispatcher) Close() {
	d.queue.Close()
	d.wg.Wait()
}

// RegisterNamespace adds name to the known-namespace set. Idempotent.
// Subscribing or emitting in an unregistered namespace is permitted but
// logs a warning.
func (d *Dispatcher) RegisterNamespace(name string) {
	name = norm.NFC.String(name)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.namespaces[name] = true
}

// ListenerOption configures a single subscription.
type ListenerOption func(*listenerConfig)

type listenerConfig struct {
	priority int
	once     bool
}

// WithPriority orders delivery: higher priorities are invoked first.
// Equal priorities run in registration order. Default 0.
func WithPriority(p int) ListenerOption {
	return func(c *listenerConfig) {
		c.priority = p
	}
}

// On registers fn for eventName, which must be "namespace:action" or the
// wildcard "namespace:*" matching every action in the namespace. The
// returned function removes the listener; calling it twice is a no-op.
//
// Fails fast with a SubscriptionError on a malformed name or nil fn.
func (d *Dispatcher) On(eventName string, fn Callback, opts ...ListenerOption) (func(), error) {
	name, err := ParseName(eventName)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, NewBadCallbackError(eventName)
	}

	cfg := listenerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	d.mu.Lock()
	if !d.namespaces[name.Namespace] {
		d.logger.Warn("subscribing in unregistered namespace", "event", name.String())
	}
	d.nextSeq++
	l := &listener{
		pattern:  name,
		fn:       fn,
		fnPtr:    reflect.ValueOf(fn).Pointer(),
		priority: cfg.priority,
		once:     cfg.once,
		seq:      d.nextSeq,
	}
	d.listeners[name] = append(d.listeners[name], l)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.removeLocked(l)
	}, nil
}

// Once registers fn for exactly one delivery: the listener is removed
// after its first invocation, and never fires twice even if the event is
// re-emitted from inside a callback before removal completes.
func (d *Dispatcher) Once(eventName string, fn Callback, opts ...ListenerOption) (func(), error) {
	opts = append(opts, func(c *listenerConfig) { c.once = true })
	return d.On(eventName, fn, opts...)
}

// Off removes every listener registered for the exact eventName whose
// callback is fn. Wildcard listeners are separate registrations: Off on a
// concrete name never touches them.
func (d *Dispatcher) Off(eventName string, fn Callback) error {
	name, err := ParseName(eventName)
	if err != nil {
		return err
	}
	if fn == nil {
		return NewBadCallbackError(eventName)
	}
	ptr := reflect.ValueOf(fn).Pointer()

	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.listeners[name][:0:0]
	for _, l := range d.listeners[name] {
		if l.fnPtr != ptr {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		delete(d.listeners, name)
	} else {
		d.listeners[name] = kept
	}
	return nil
}

// OffAll removes all listeners for the exact eventName. Listeners
// registered under "ns:*" are unaffected by OffAll of a concrete name.
func (d *Dispatcher) OffAll(eventName string) error {
	name, err := ParseName(eventName)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, name)
	return nil
}

// ListenerCount returns the number of listeners registered for the exact
// eventName. Wildcard listeners are not counted against concrete names.
func (d *Dispatcher) ListenerCount(eventName string) int {
	name, err := ParseName(eventName)
	if err != nil {
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[name])
}

// EmittedCount returns the total number of dispatch passes performed.
func (d *Dispatcher) EmittedCount() int64 {
	return d.emitted.Load()
}

// Emit synchronously records the event into history and delivers it to
// all exact-match and wildcard listeners. The delivery set is snapshotted
// before dispatch begins, so subscribing or unsubscribing from inside a
// callback never affects the current pass. A panicking listener is
// recovered and logged; remaining listeners still run.
func (d *Dispatcher) Emit(eventName string, data any) error {
	name, err := ParseName(eventName)
	if err != nil {
		return err
	}
	d.dispatch(name, data)
	return nil
}

// EmitAsync defers the entire emit (history recording and dispatch) to
// the background worker. Async emits are dispatched in submission order.
func (d *Dispatcher) EmitAsync(eventName string, data any) error {
	name, err := ParseName(eventName)
	if err != nil {
		return err
	}
	if !d.queue.Enqueue(asyncEmit{event: name, data: data}) {
		return fmt.Errorf("emit async %q: dispatcher closed", eventName)
	}
	return nil
}

// runWorker drains the async emit queue in FIFO order until Close.
func (d *Dispatcher) runWorker() {
	defer d.wg.Done()
	for {
		if e, ok := d.queue.TryDequeue(); ok {
			d.dispatch(e.event, e.data)
			continue
		}
		if _, open := <-d.queue.Wait(); !open {
			// Closed: drain whatever is left, then exit.
			for {
				e, ok := d.queue.TryDequeue()
				if !ok {
					return
				}
				d.dispatch(e.event, e.data)
			}
		}
	}
}

// dispatch records the event and runs one delivery pass.
func (d *Dispatcher) dispatch(name Name, data any) {
	d.mu.Lock()
	if !d.namespaces[name.Namespace] {
		d.logger.Warn("emitting in unregistered namespace", "event", name.String())
	}

	d.history.add(Record{Event: name, Data: data, Timestamp: d.clock.Now()})

	// Snapshot the delivery set: exact matches plus namespace wildcards.
	targets := make([]*listener, 0, len(d.listeners[name]))
	targets = append(targets, d.listeners[name]...)
	if !name.IsWildcard() {
		wildcard := Name{Namespace: name.Namespace, Action: Wildcard}
		targets = append(targets, d.listeners[wildcard]...)
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].priority != targets[j].priority {
			return targets[i].priority > targets[j].priority
		}
		return targets[i].seq < targets[j].seq
	})
	d.mu.Unlock()

	d.emitted.Inc()

	for _, l := range targets {
		if l.once {
			d.mu.Lock()
			if l.fired {
				d.mu.Unlock()
				continue
			}
			l.fired = true
			d.mu.Unlock()
		}

		d.invoke(l, data, name)

		if l.once {
			d.mu.Lock()
			d.removeLocked(l)
			d.mu.Unlock()
		}
	}
}

// invoke runs one callback, recovering and logging a panic.
func (d *Dispatcher) invoke(l *listener, data any, name Name) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("listener panicked", "event", name.String(), "panic", r)
		}
	}()
	l.fn(data, name)
}

// removeLocked deletes one listener by identity. Caller holds d.mu.
func (d *Dispatcher) removeLocked(target *listener) {
	list := d.listeners[target.pattern]
	for i, l := range list {
		if l == target {
			d.listeners[target.pattern] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(d.listeners[target.pattern]) == 0 {
		delete(d.listeners, target.pattern)
	}
}
