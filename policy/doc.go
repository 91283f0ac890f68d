// Package policy holds the declarative decision tables that translate
// binding flags into score elevations and run-state clamps.  The tables
// are ordered; the first applicable rule wins.  Keeping them here, away
// from graph traversal, makes each rule independently testable.
package policy
