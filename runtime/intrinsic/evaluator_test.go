package intrinsic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
)

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newNode(facts proc.Facts) *proc.Node {
	node := &proc.Node{ID: "p", Facts: facts}
	node.Reset()
	node.Applied = tier.Unknown()
	return node
}

func TestEvaluatePrecedence(t *testing.T) {
	awake := Env{Now: testEpoch, Awake: true}
	asleep := Env{Now: testEpoch}
	testCases := []struct {
		description string
		facts       proc.Facts
		env         Env
		applied     tier.Tuple
		expect      tier.Tuple
		reason      string
		cached      bool
	}{
		{
			description: "top process while awake",
			env:         Env{Now: testEpoch, Awake: true, Top: "p"},
			expect:      tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateTop, Group: tier.GroupTopApp},
			reason:      "top-activity",
		},
		{
			description: "top process while asleep",
			env:         Env{Now: testEpoch, Top: "p"},
			expect:      tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateTopSleeping, Group: tier.GroupBackground},
			reason:      "top-sleeping",
		},
		{
			description: "remote animation wins over instrumentation",
			facts:       proc.Facts{RemoteAnimating: true, Instrumenting: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.VisibleAdj, State: tier.StateTop, Group: tier.GroupTopApp},
			reason:      "running-remote-anim",
		},
		{
			description: "instrumentation",
			facts:       proc.Facts{Instrumenting: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateForegroundService, Group: tier.GroupDefault},
			reason:      "instrumentation",
		},
		{
			description: "foreground broadcast",
			facts:       proc.Facts{Receiving: true, FgBroadcast: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateReceiver, Group: tier.GroupDefault},
			reason:      "broadcast",
		},
		{
			description: "background broadcast stays in background group",
			facts:       proc.Facts{Receiving: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateReceiver, Group: tier.GroupBackground},
			reason:      "broadcast",
		},
		{
			description: "executing services",
			facts:       proc.Facts{ExecServices: true, FgExecServices: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateService, Group: tier.GroupDefault},
			reason:      "exec-service",
		},
		{
			description: "nothing keeps it alive",
			env:         awake,
			expect:      tier.Tuple{Adj: tier.UnknownAdj, State: tier.StateCachedEmpty, Group: tier.GroupBackground},
			reason:      "cch-empty",
			cached:      true,
		},
		{
			description: "visible activity",
			facts:       proc.Facts{HasActivities: true, Activity: proc.ActivityVisible},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.VisibleAdj, State: tier.StateTop, Group: tier.GroupDefault},
			reason:      "vis-activity",
		},
		{
			description: "pausing activity",
			facts:       proc.Facts{HasActivities: true, Activity: proc.ActivityPausing},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateTop, Group: tier.GroupDefault},
			reason:      "pause-activity",
		},
		{
			description: "stopping activity keeps last-activity state",
			facts:       proc.Facts{HasActivities: true, Activity: proc.ActivityStopping},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateLastActivity, Group: tier.GroupBackground},
			reason:      "stop-activity",
		},
		{
			description: "finishing activity drops to cached state",
			facts:       proc.Facts{HasActivities: true, Activity: proc.ActivityFinishing},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateCachedEmpty, Group: tier.GroupBackground},
			reason:      "stop-activity",
		},
		{
			description: "other activity only raises the state",
			facts:       proc.Facts{HasActivities: true, Activity: proc.ActivityOther},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.UnknownAdj, State: tier.StateCachedActivity, Group: tier.GroupBackground},
			reason:      "cch-act",
			cached:      true,
		},
		{
			description: "recent task",
			facts:       proc.Facts{HasRecentTask: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.UnknownAdj, State: tier.StateCachedRecent, Group: tier.GroupBackground},
			reason:      "cch-rec",
			cached:      true,
		},
		{
			description: "foreground service",
			facts:       proc.Facts{FgService: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateForegroundService, Group: tier.GroupDefault},
			reason:      "fg-service",
		},
		{
			description: "overlay ui",
			facts:       proc.Facts{OverlayUI: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateImportantForeground, Group: tier.GroupDefault},
			reason:      "has-overlay-ui",
		},
		{
			description: "foreground service fresh from top keeps a lead",
			facts:       proc.Facts{FgService: true, LastTopAt: testEpoch.Add(-5 * time.Second)},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PerceptibleRecentAdj, State: tier.StateForegroundService, Group: tier.GroupDefault},
			reason:      "fg-service-act",
		},
		{
			description: "grace expires",
			facts:       proc.Facts{FgService: true, LastTopAt: testEpoch.Add(-time.Minute)},
			env:         awake,
			applied:     tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateForegroundService},
			expect:      tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateForegroundService, Group: tier.GroupDefault},
			reason:      "fg-service",
		},
		{
			description: "forced important",
			facts:       proc.Facts{ForcedImportant: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateTransientBackground, Group: tier.GroupDefault},
			reason:      "force-imp",
		},
		{
			description: "heavy weight",
			facts:       proc.Facts{Heavy: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.HeavyAdj, State: tier.StateHeavy, Group: tier.GroupBackground},
			reason:      "heavy",
		},
		{
			description: "home",
			facts:       proc.Facts{Home: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.HomeAdj, State: tier.StateHome, Group: tier.GroupBackground},
			reason:      "home",
		},
		{
			description: "previous app",
			facts:       proc.Facts{Previous: true, HasActivities: true, Activity: proc.ActivityOther, LastActivityAt: testEpoch.Add(-10 * time.Second)},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PreviousAdj, State: tier.StateLastActivity, Group: tier.GroupBackground},
			reason:      "previous",
		},
		{
			description: "previous app expires",
			facts:       proc.Facts{Previous: true, HasActivities: true, Activity: proc.ActivityOther, LastActivityAt: testEpoch.Add(-5 * time.Minute)},
			env:         awake,
			applied:     tier.Tuple{Adj: tier.PreviousAdj, State: tier.StateLastActivity},
			expect:      tier.Tuple{Adj: tier.CachedMinAdj, State: tier.StateLastActivity, Group: tier.GroupBackground},
			reason:      "previous-expired",
		},
		{
			description: "backup target",
			facts:       proc.Facts{Backup: true},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.BackupAdj, State: tier.StateBackup, Group: tier.GroupBackground},
			reason:      "backup",
		},
		{
			description: "recently used started service",
			facts:       proc.Facts{HasStartedServices: true, LastActivityAt: testEpoch.Add(-time.Minute)},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground},
			reason:      "started-services",
		},
		{
			description: "stale started service keeps its state only",
			facts:       proc.Facts{HasStartedServices: true, LastActivityAt: testEpoch.Add(-time.Hour)},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.UnknownAdj, State: tier.StateService, Group: tier.GroupBackground},
			reason:      "cch-started-services",
			cached:      true,
		},
		{
			description: "started service behind shown ui ages out",
			facts:       proc.Facts{HasStartedServices: true, ShownUI: true, LastActivityAt: testEpoch},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.UnknownAdj, State: tier.StateService, Group: tier.GroupBackground},
			reason:      "cch-started-ui-services",
			cached:      true,
		},
		{
			description: "keep-warm started service ignores shown ui",
			facts:       proc.Facts{HasStartedServices: true, ShownUI: true, KeepWarm: true, LastActivityAt: testEpoch.Add(-time.Hour)},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground},
			reason:      "started-services",
		},
		{
			description: "external provider handle",
			facts:       proc.Facts{ExternalHandles: 1},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateImportantForeground, Group: tier.GroupDefault},
			reason:      "ext-provider",
		},
		{
			description: "recent provider host stays warm",
			facts:       proc.Facts{LastProviderAt: testEpoch.Add(-5 * time.Second)},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PreviousAdj, State: tier.StateLastActivity, Group: tier.GroupBackground},
			reason:      "recent-provider",
		},
		{
			description: "asleep remote animation reports sleeping top state",
			facts:       proc.Facts{RemoteAnimating: true},
			env:         asleep,
			expect:      tier.Tuple{Adj: tier.VisibleAdj, State: tier.StateTopSleeping, Group: tier.GroupTopApp},
			reason:      "running-remote-anim",
		},
	}

	evaluator := New(DefaultTuning())
	for _, tc := range testCases {
		node := newNode(tc.facts)
		if (tc.applied != tier.Tuple{}) {
			node.Applied = tc.applied
		}
		got := evaluator.Evaluate(node, tier.UnknownAdj, tc.env)
		assert.Equal(t, tc.expect, got.Tuple, tc.description)
		assert.Equal(t, tc.reason, got.Reason, tc.description)
		assert.Equal(t, tc.cached, got.Cached, tc.description)
	}
}

func TestEvaluatePinned(t *testing.T) {
	evaluator := New(DefaultTuning())
	awake := Env{Now: testEpoch, Awake: true}

	plain := evaluator.Evaluate(newNode(proc.Facts{Pinned: true}), tier.UnknownAdj, awake)
	assert.True(t, plain.Pinned)
	assert.Equal(t, tier.Tuple{Adj: tier.PinnedProcAdj, State: tier.StatePinned, Group: tier.GroupDefault}, plain.Tuple)
	assert.Equal(t, "fixed", plain.Reason)

	capped := evaluator.Evaluate(newNode(proc.Facts{Capped: true, MaxAdj: tier.SystemAdj}), tier.UnknownAdj, awake)
	assert.True(t, capped.Pinned)
	assert.Equal(t, tier.SystemAdj, capped.Tuple.Adj)

	topUI := evaluator.Evaluate(newNode(proc.Facts{Pinned: true, TopUI: true}), tier.UnknownAdj, awake)
	assert.Equal(t, tier.StatePinnedUI, topUI.Tuple.State)
	assert.Equal(t, tier.GroupTopApp, topUI.Tuple.Group)
	assert.Equal(t, "pers-top-ui", topUI.Reason)

	dozing := evaluator.Evaluate(newNode(proc.Facts{Pinned: true, TopUI: true}), tier.UnknownAdj, Env{Now: testEpoch})
	assert.Equal(t, tier.StateBoundForegroundService, dozing.Tuple.State)
	assert.Equal(t, tier.GroupRestricted, dozing.Tuple.Group)

	top := evaluator.Evaluate(newNode(proc.Facts{Pinned: true}), tier.UnknownAdj, Env{Now: testEpoch, Awake: true, Top: "p"})
	assert.Equal(t, tier.GroupTopApp, top.Tuple.Group)
	assert.Equal(t, tier.StatePinnedUI, top.Tuple.State)
	assert.Equal(t, "pers-top-activity", top.Reason)
}
