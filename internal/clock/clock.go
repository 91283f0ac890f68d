package clock

import "time"

// NowFunc supplies the wall clock. Tests swap it to pin retain windows
// and cache ageing to a fixed instant.
var NowFunc = time.Now

// Now reads the current time through NowFunc.
func Now() time.Time { return NowFunc() }
