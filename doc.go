// Package pannier implements a flat, key-addressed object store exposed
// through an HTTP surface that emulates a hierarchical file browser.
//
// Objects live in a single flat key namespace; all hierarchy is derived at
// read time from prefix/delimiter math (see Resolver). Access is gated by a
// single credential pair encoded into a stateless token (see Gate), and
// write/list traffic is throttled by a sliding-window limiter whose records
// are persisted inside the same object store (see Limiter).
package pannier
