// Package extension provides run-time registries that allow procadj to work
// with user-defined Go types (for example custom apply-sink payloads) and
// host-supplied sink implementations.
//
// The registries are normally modified through the public APIs under the
// root procadj package, therefore most applications do not need to import
// this package directly.
package extension
