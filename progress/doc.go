// Package progress defines primitives for reporting and aggregating the
// statistics of importance recompute passes.  It abstracts away the
// underlying communication mechanism so that callers can consume pass
// updates in a uniform way regardless of whether they are delivered via
// in-memory channels, message queues or external observers.
package progress
