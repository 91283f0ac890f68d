// Package idgen hands out the identifiers that tag recompute passes and
// their snapshots. Callers treat the result as an opaque string.
package idgen
