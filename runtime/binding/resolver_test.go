package binding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
	"github.com/viant/procadj/runtime/intrinsic"
)

var testEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func hostNode(facts proc.Facts) *proc.Node {
	node := &proc.Node{ID: "host", Facts: facts}
	node.Reset()
	node.Applied = tier.Unknown()
	return node
}

func cachedTuple() tier.Tuple {
	return tier.Tuple{Adj: tier.CachedMinAdj, State: tier.StateCachedEmpty, Group: tier.GroupBackground}
}

func topClient() Client {
	return Client{Adj: tier.ForegroundAdj, State: tier.StateTop, Group: tier.GroupTopApp}
}

func TestResolveService(t *testing.T) {
	awake := intrinsic.Env{Now: testEpoch, Awake: true}
	testCases := []struct {
		description string
		edge        proc.Edge
		client      Client
		host        proc.Facts
		hostTuple   tier.Tuple
		env         intrinsic.Env
		expect      tier.Tuple
		reason      string
	}{
		{
			description: "waive-priority binding confers nothing",
			edge:        proc.Edge{Flags: proc.FlagWaivePriority},
			client:      topClient(),
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      cachedTuple(),
		},
		{
			description: "plain binding from top lands at visible and bound-top",
			edge:        proc.Edge{},
			client:      topClient(),
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.VisibleAdj, State: tier.StateBoundTop, Group: tier.GroupDefault},
			reason:      "service",
		},
		{
			description: "important binding from top inherits group and score",
			edge:        proc.Edge{Flags: proc.FlagImportant},
			client:      topClient(),
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateBoundTop, Group: tier.GroupTopApp},
			reason:      "service",
		},
		{
			description: "above-client binding keeps host at the client score",
			edge:        proc.Edge{Flags: proc.FlagAboveClient},
			client:      Client{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground},
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground},
			reason:      "service",
		},
		{
			description: "above-client binding from a pinned-band client pins the host",
			edge:        proc.Edge{Flags: proc.FlagAboveClient},
			client:      Client{Adj: tier.PinnedProcAdj, State: tier.StatePinned, Group: tier.GroupDefault},
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.PinnedServiceAdj, State: tier.StatePinned, Group: tier.GroupDefault},
			reason:      "service",
		},
		{
			description: "cached client counts as empty",
			edge:        proc.Edge{},
			client:      Client{Adj: tier.CachedMinAdj + 5, State: tier.StateCachedActivity, Group: tier.GroupBackground, Cached: true},
			hostTuple:   tier.Tuple{Adj: tier.CachedMaxAdj, State: tier.StateCachedEmpty, Group: tier.GroupBackground},
			env:         awake,
			expect:      tier.Tuple{Adj: tier.CachedMinAdj + 5, State: tier.StateCachedEmpty, Group: tier.GroupBackground},
			reason:      "service",
		},
		{
			description: "shown-ui host ignores weak clients",
			edge:        proc.Edge{},
			client:      Client{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground},
			host:        proc.Facts{ShownUI: true},
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.CachedMinAdj, State: tier.StateService, Group: tier.GroupBackground},
			reason:      "cch-bound-ui-services",
		},
		{
			description: "allow-oom-management releases an inactive host",
			edge:        proc.Edge{Flags: proc.FlagAllowManagement},
			client:      topClient(),
			host:        proc.Facts{LastActivityAt: testEpoch.Add(-time.Hour)},
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.CachedMinAdj, State: tier.StateBoundTop, Group: tier.GroupDefault},
			reason:      "cch-bound-services",
		},
		{
			description: "allow-oom-management still elevates a recently used host",
			edge:        proc.Edge{Flags: proc.FlagAllowManagement},
			client:      topClient(),
			host:        proc.Facts{LastActivityAt: testEpoch.Add(-time.Minute)},
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.VisibleAdj, State: tier.StateBoundTop, Group: tier.GroupDefault},
			reason:      "service",
		},
		{
			description: "not-foreground clamps the state and leaves the group",
			edge:        proc.Edge{Flags: proc.FlagNotForeground},
			client:      topClient(),
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.VisibleAdj, State: tier.StateTransientBackground, Group: tier.GroupBackground},
			reason:      "service",
		},
		{
			description: "foreground-service binding from pinned client",
			edge:        proc.Edge{Flags: proc.FlagForegroundService},
			client:      Client{Adj: tier.PinnedProcAdj, State: tier.StatePinned, Group: tier.GroupDefault},
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.VisibleAdj, State: tier.StateBoundForegroundService, Group: tier.GroupDefault},
			reason:      "service",
		},
		{
			description: "schedule-like-top from pinned client",
			edge:        proc.Edge{Flags: proc.FlagScheduleLikeTop},
			client:      Client{Adj: tier.PinnedProcAdj, State: tier.StatePinned, Group: tier.GroupDefault},
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.VisibleAdj, State: tier.StateImportantForeground, Group: tier.GroupTopApp},
			reason:      "service",
		},
		{
			description: "treat-like-activity on a waived binding raises cached state",
			edge:        proc.Edge{Flags: proc.FlagWaivePriority | proc.FlagTreatLikeActivity},
			client:      Client{Adj: tier.CachedMinAdj, State: tier.StateCachedActivity, Group: tier.GroupBackground, Cached: true},
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.CachedMinAdj, State: tier.StateCachedActivity, Group: tier.GroupBackground},
			reason:      "cch-as-act",
		},
		{
			description: "adjust-with-activity with important schedules next to top",
			edge:        proc.Edge{Flags: proc.FlagWaivePriority | proc.FlagAdjustWithActivity | proc.FlagImportant, ActivityVisible: true},
			client:      topClient(),
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateCachedEmpty, Group: tier.GroupTopAppBound},
			reason:      "service",
		},
		{
			description: "adjust-with-activity needs a visible activity",
			edge:        proc.Edge{Flags: proc.FlagWaivePriority | proc.FlagAdjustWithActivity | proc.FlagImportant},
			client:      topClient(),
			hostTuple:   cachedTuple(),
			env:         awake,
			expect:      cachedTuple(),
		},
	}

	resolver := NewResolver(intrinsic.DefaultTuning())
	for _, tc := range testCases {
		host := hostNode(tc.host)
		got := resolver.Resolve(&tc.edge, tc.client, host, tc.hostTuple, tc.env)
		assert.Equal(t, tc.expect, got.Tuple, tc.description)
		assert.Equal(t, tc.reason, got.Reason, tc.description)
	}
}

func TestResolveProvider(t *testing.T) {
	awake := intrinsic.Env{Now: testEpoch, Awake: true}
	resolver := NewResolver(intrinsic.DefaultTuning())

	fromTop := resolver.Resolve(&proc.Edge{Kind: proc.KindProvider}, topClient(),
		hostNode(proc.Facts{}), cachedTuple(), awake)
	assert.Equal(t, tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateBoundTop, Group: tier.GroupDefault}, fromTop.Tuple)
	assert.Equal(t, "provider", fromTop.Reason)
	assert.True(t, fromTop.ClearCached)

	fromService := resolver.Resolve(&proc.Edge{Kind: proc.KindProvider},
		Client{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground},
		hostNode(proc.Facts{}), cachedTuple(), awake)
	assert.Equal(t, tier.Tuple{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground}, fromService.Tuple)

	shownUI := resolver.Resolve(&proc.Edge{Kind: proc.KindProvider},
		Client{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground},
		hostNode(proc.Facts{ShownUI: true}), cachedTuple(), awake)
	assert.Equal(t, tier.CachedMinAdj, shownUI.Tuple.Adj)
	assert.Equal(t, "cch-ui-provider", shownUI.Reason)

	cachedClient := resolver.Resolve(&proc.Edge{Kind: proc.KindProvider},
		Client{Adj: tier.CachedMinAdj, State: tier.StateCachedActivity, Group: tier.GroupBackground, Cached: true},
		hostNode(proc.Facts{}), tier.Tuple{Adj: tier.CachedMaxAdj, State: tier.StateCachedEmpty, Group: tier.GroupBackground}, awake)
	assert.Equal(t, tier.StateCachedEmpty, cachedClient.Tuple.State, "cached provider client counts as empty")
	assert.Equal(t, tier.CachedMinAdj, cachedClient.Tuple.Adj)
	assert.False(t, cachedClient.ClearCached)
}

func TestFinish(t *testing.T) {
	resolver := NewResolver(intrinsic.DefaultTuning())
	awake := intrinsic.Env{Now: testEpoch, Awake: true}
	asleep := intrinsic.Env{Now: testEpoch}

	node := hostNode(proc.Facts{HasClientActivities: true})
	got, reason := resolver.Finish(node, tier.Tuple{Adj: tier.CachedMinAdj, State: tier.StateCachedEmpty, Group: tier.GroupBackground}, awake)
	assert.Equal(t, tier.StateCachedActivityClient, got.State)
	assert.Equal(t, "cch-client-act", reason)

	treated := hostNode(proc.Facts{})
	treated.TreatLikeActivity = true
	got, reason = resolver.Finish(treated, tier.Tuple{Adj: tier.CachedMinAdj, State: tier.StateCachedEmpty, Group: tier.GroupBackground}, awake)
	assert.Equal(t, tier.StateCachedActivity, got.State)
	assert.Equal(t, "cch-as-act", reason)

	bList := hostNode(proc.Facts{ServiceB: true})
	got, _ = resolver.Finish(bList, tier.Tuple{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground}, awake)
	assert.Equal(t, tier.ServiceBAdj, got.Adj)

	capped := hostNode(proc.Facts{Capped: true, MaxAdj: tier.PerceptibleLowAdj})
	got, _ = resolver.Finish(capped, tier.Tuple{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupBackground}, awake)
	assert.Equal(t, tier.PerceptibleLowAdj, got.Adj)
	assert.Equal(t, tier.GroupDefault, got.Group)

	restricted := hostNode(proc.Facts{})
	got, _ = resolver.Finish(restricted, tier.Tuple{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupDefault}, asleep)
	assert.Equal(t, tier.GroupRestricted, got.Group)

	liked := hostNode(proc.Facts{})
	liked.ScheduleLikeTop = true
	got, _ = resolver.Finish(liked, tier.Tuple{Adj: tier.ServiceAdj, State: tier.StateService, Group: tier.GroupTopApp}, asleep)
	assert.Equal(t, tier.GroupTopApp, got.Group)
}
