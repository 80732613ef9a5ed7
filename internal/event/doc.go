// Package event implements the namespaced publish/subscribe dispatcher
// that decouples application features from each other.
//
// Event names are typed (namespace, action) pairs parsed once at
// subscribe/emit time; "todo:created" addresses one event, "todo:*"
// subscribes to every event in the todo namespace.
//
// # Delivery Guarantees
//
//   - Delivery set is snapshotted before dispatch: mutation from inside a
//     callback never affects the in-flight pass
//   - Descending priority order; registration order within equal priority
//   - Once listeners fire exactly once, even under re-entrant emits
//   - A panicking listener is recovered and logged; the rest still run
//
// # History and Replay
//
// Every emit is recorded into a bounded in-memory ring buffer (oldest
// evicted first) regardless of listener presence. History supports
// pattern/since/limit queries and chronological replay into a callback.
// Nothing in this package is persisted.
//
// # Async Emission
//
// EmitAsync defers the whole emit to a single background worker draining
// a FIFO queue, so async emits observe the same relative order they were
// submitted in.
package event
