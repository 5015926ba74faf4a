// Package memory implements the embedded liquidstore engine: the
// authoritative in-memory Persona -> App -> Key hierarchy behind one
// coarse reader/writer lock, with asynchronous per-persona persistence.
//
// The coarse lock is a deliberate tradeoff: readers run concurrently,
// writers are exclusive, and a persona's map can never be observed torn.
// Durability is decoupled from the critical section; a mutation snapshots
// the affected persona under a read lock and hands the snapshot to a
// single-flight writer goroutine per persona, so disk latency never
// blocks store operations and saves for one persona can never complete
// out of order.
package memory
