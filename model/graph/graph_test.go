package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/procadj/model/proc"
)

func TestGraphNodeLifecycle(t *testing.T) {
	g := New()
	a, err := g.Add("a", proc.Facts{})
	assert.NoError(t, err)
	assert.Equal(t, 0, a.Slot)

	_, err = g.Add("a", proc.Facts{})
	assert.ErrorIs(t, err, ErrProcessExists)

	b, err := g.Add("b", proc.Facts{})
	assert.NoError(t, err)
	assert.Equal(t, 1, b.Slot)

	assert.NoError(t, g.Remove("a"))
	assert.ErrorIs(t, g.Remove("a"), ErrProcessNotFound)

	// freed slot is reused
	c, err := g.Add("c", proc.Facts{})
	assert.NoError(t, err)
	assert.Equal(t, 0, c.Slot)
	assert.Equal(t, 2, g.Len())
	assert.NoError(t, g.Validate())
}

func TestGraphEdges(t *testing.T) {
	g := New()
	for _, id := range []proc.ID{"client", "host", "other"} {
		_, err := g.Add(id, proc.Facts{})
		assert.NoError(t, err)
	}
	_, err := g.Bind(proc.Edge{Client: "client", Host: "missing"})
	assert.ErrorIs(t, err, ErrProcessNotFound)

	first, err := g.Bind(proc.Edge{Client: "client", Host: "host", Flags: proc.FlagImportant})
	assert.NoError(t, err)
	second, err := g.Bind(proc.Edge{Client: "client", Host: "other", Kind: proc.KindProvider})
	assert.NoError(t, err)

	client, _ := g.Node("client")
	host, _ := g.Node("host")
	out := g.Out(client)
	if assert.Len(t, out, 2) {
		assert.Equal(t, first, out[0].ID)
		assert.True(t, out[0].Flags.Has(proc.FlagImportant))
		assert.Equal(t, second, out[1].ID)
		assert.Equal(t, proc.KindProvider, out[1].Kind)
	}
	assert.Len(t, g.In(host), 1)

	assert.NoError(t, g.Unbind(first))
	assert.ErrorIs(t, g.Unbind(first), ErrEdgeNotFound)
	assert.Len(t, g.Out(client), 1)
	assert.Empty(t, g.In(host))
	assert.NoError(t, g.Validate())
}

func TestGraphRemoveDropsIncidentEdges(t *testing.T) {
	g := New()
	for _, id := range []proc.ID{"a", "b", "c"} {
		_, err := g.Add(id, proc.Facts{})
		assert.NoError(t, err)
	}
	_, err := g.Bind(proc.Edge{Client: "a", Host: "b"})
	assert.NoError(t, err)
	edgeBC, err := g.Bind(proc.Edge{Client: "b", Host: "c"})
	assert.NoError(t, err)

	assert.NoError(t, g.Remove("b"))
	a, _ := g.Node("a")
	c, _ := g.Node("c")
	assert.Empty(t, g.Out(a))
	assert.Empty(t, g.In(c))
	_, ok := g.Edge(edgeBC)
	assert.False(t, ok)
	assert.NoError(t, g.Validate())
}

func TestGraphReachable(t *testing.T) {
	g := New()
	for _, id := range []proc.ID{"a", "b", "c", "d", "loner"} {
		_, err := g.Add(id, proc.Facts{})
		assert.NoError(t, err)
	}
	mustBind := func(client, host proc.ID) {
		_, err := g.Bind(proc.Edge{Client: client, Host: host})
		assert.NoError(t, err)
	}
	mustBind("a", "b")
	mustBind("b", "c")
	mustBind("c", "a") // cycle back to the root
	mustBind("d", "a") // upstream client, not reachable from a

	reached := g.Reachable("a")
	var ids []proc.ID
	for _, node := range reached {
		ids = append(ids, node.ID)
	}
	assert.Equal(t, []proc.ID{"a", "b", "c"}, ids)
}

func TestGraphLRUOrder(t *testing.T) {
	g := New()
	for _, id := range []proc.ID{"a", "b", "c"} {
		_, err := g.Add(id, proc.Facts{})
		assert.NoError(t, err)
	}
	g.Touch("a")
	var ids []proc.ID
	for _, node := range g.LRU() {
		ids = append(ids, node.ID)
	}
	assert.Equal(t, []proc.ID{"b", "c", "a"}, ids)
}
