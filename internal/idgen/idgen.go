package idgen

import "github.com/google/uuid"

// NewFunc mints pass identifiers. Tests replace it to make snapshot
// keys predictable.
var NewFunc = func() string { return uuid.New().String() }

// New returns the next pass identifier.
func New() string { return NewFunc() }
