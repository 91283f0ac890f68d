package proc

import "strings"

// BindFlags modulate how much importance a service binding carries from
// client to host.
type BindFlags uint32

const (
	// FlagWaivePriority carries no importance at all, with the
	// treat-like-activity and adjust-with-activity exceptions.
	FlagWaivePriority BindFlags = 1 << iota
	// FlagAllowManagement lets a shown-UI or inactive host stay demoted
	// below the client instead of inheriting from it.
	FlagAllowManagement
	// FlagAboveClient asks for the host to be kept above the client;
	// combined with FlagImportant it pins the host.
	FlagAboveClient
	FlagImportant
	// FlagNotForeground keeps the host out of the foreground band at
	// the run-state level.
	FlagNotForeground
	FlagImportantBackground
	FlagForegroundService
	FlagForegroundServiceWhileAwake
	// FlagNotPerceptible limits elevation to the low perceptible tier.
	FlagNotPerceptible
	// FlagNotVisible limits elevation to the perceptible tier.
	FlagNotVisible
	FlagAlmostPerceptible
	// FlagAdjustWithActivity ties the host to the visibility of the
	// client activity that owns the binding.
	FlagAdjustWithActivity
	FlagTreatLikeActivity
	FlagScheduleLikeTop
)

var flagNames = []struct {
	flag BindFlags
	name string
}{
	{FlagWaivePriority, "waive"},
	{FlagAllowManagement, "manage"},
	{FlagAboveClient, "above"},
	{FlagImportant, "imp"},
	{FlagNotForeground, "notfg"},
	{FlagImportantBackground, "impbg"},
	{FlagForegroundService, "fgs"},
	{FlagForegroundServiceWhileAwake, "fgsawake"},
	{FlagNotPerceptible, "notprcp"},
	{FlagNotVisible, "notvis"},
	{FlagAlmostPerceptible, "almost"},
	{FlagAdjustWithActivity, "withact"},
	{FlagTreatLikeActivity, "likeact"},
	{FlagScheduleLikeTop, "liketop"},
}

// Has reports whether all bits of mask are set.
func (f BindFlags) Has(mask BindFlags) bool {
	return f&mask == mask
}

// Any reports whether at least one bit of mask is set.
func (f BindFlags) Any(mask BindFlags) bool {
	return f&mask != 0
}

func (f BindFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, item := range flagNames {
		if f.Has(item.flag) {
			parts = append(parts, item.name)
		}
	}
	return strings.Join(parts, "|")
}
