package intrinsic

import "time"

// Tuning collects the time windows the evaluators consult.  Only their
// existence is load bearing; hosts tune the magnitudes.
type Tuning struct {
	// TopGrace keeps a process that just left the top slot ahead of
	// other foreground-service processes.
	TopGrace time.Duration `yaml:"topGrace" json:"topGrace"`
	// ServiceInactivity is how long a started service keeps its process
	// out of the cached band after its last use.
	ServiceInactivity time.Duration `yaml:"serviceInactivity" json:"serviceInactivity"`
	// ProviderRetain keeps a recent provider host warm after its last
	// client let go.
	ProviderRetain time.Duration `yaml:"providerRetain" json:"providerRetain"`
	// PreviousMax bounds how long the previous app keeps its
	// privileged slot.
	PreviousMax time.Duration `yaml:"previousMax" json:"previousMax"`
	// CachedDecay separates fresh from aged processes in the tiered
	// cached mode.
	CachedDecay time.Duration `yaml:"cachedDecay" json:"cachedDecay"`
}

// DefaultTuning returns production defaults.
func DefaultTuning() Tuning {
	return Tuning{
		TopGrace:          15 * time.Second,
		ServiceInactivity: 30 * time.Minute,
		ProviderRetain:    20 * time.Second,
		PreviousMax:       60 * time.Second,
		CachedDecay:       60 * time.Second,
	}
}

// Validate checks the tuning for negative windows.
func (t *Tuning) Validate() error {
	for _, window := range []time.Duration{
		t.TopGrace, t.ServiceInactivity, t.ProviderRetain, t.PreviousMax, t.CachedDecay,
	} {
		if window < 0 {
			return errNegativeWindow
		}
	}
	return nil
}
