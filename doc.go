// Package spanline captures nested spans and structured events and emits one
// self-contained JSON line per event.
//
// Spans are named, attributed scopes of execution. Their attributes
// accumulate into an insertion-ordered record for as long as the span lives.
// Every event is written as a single document containing, in fixed order, its
// timestamp, level, target and fields, followed by the record of its
// enclosing span and the records of the whole ancestor chain from root to
// leaf. Downstream log consumers therefore never need to join lines to
// reconstruct context.
//
// # Guarantees
//
//   - Failure Isolation: capture never surfaces an error into the
//     instrumented program. Encoding or sink failures drop the single event
//     or span update involved, nothing more.
//   - Ordering: attribute documents iterate and serialize keys in first
//     insertion order; re-recording a key updates the value in place.
//   - Concurrency: all Logger, Span and Layer APIs are safe for concurrent
//     use; concurrent updates and reads of one span's record are serialized.
//   - Synchronous output: each event is one write plus flush. Nothing is
//     buffered, batched, sampled or shipped off-process.
//
// Fields use go.uber.org/zap's field constructors directly; spanline adds
// JSON for pre-parsed documents and honors the JSONStringPrefix sentinel for
// strings carrying embedded JSON.
package spanline
