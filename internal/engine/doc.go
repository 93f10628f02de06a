/*
Package engine implements the concurrent load-generation dispatcher.

# Design

The engine issues exactly Total requests against an immutable template,
never holding more than Concurrency in flight at once:
  - A weighted semaphore is the concurrency gate: the dispatch loop
    suspends on permit acquisition, so backpressure is the gate itself and
    no queue of pending requests ever builds up.
  - Sequence numbers are assigned at acquisition time, so they reflect
    dispatch order even though completions arrive out of order.
  - Every attempted request produces exactly one Outcome on the outcome
    channel; a per-request deadline converts slow requests into timeout
    outcomes and frees their permit immediately.
  - Cancellation (Stop or parent context) abandons in-flight requests and
    closes the channels; outcomes already published are preserved, results
    racing with the cancel are discarded.

# Timing

Per-request phase timings (DNS, connect, TLS handshake, first byte) are
captured with net/http/httptrace hooks on a shared pooled client. Phases
that do not run (reused connection, plaintext) report zero.

Channel lifecycle:
 1. Run starts the dispatch loop.
 2. Each dispatched request ticks the sent channel and eventually publishes
    one outcome.
 3. When the last task finishes (or cancellation wins), both channels close.
    The consumer drains until close; closed channels are the completion
    signal.
*/
package engine
