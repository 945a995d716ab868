package spanline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndMeta(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(0, SpanMeta{Target: "svc", Name: "root"})
	require.NotZero(t, id)

	meta, ok := reg.Meta(id)
	require.True(t, ok)
	assert.Equal(t, "svc", meta.Target)
	assert.Equal(t, "root", meta.Name)

	_, ok = reg.Meta(SpanID(999))
	assert.False(t, ok)
}

func TestRegistry_ParentLinks(t *testing.T) {
	reg := NewRegistry()
	root := reg.Register(0, SpanMeta{Name: "root"})
	child := reg.Register(root, SpanMeta{Name: "child"})

	assert.Equal(t, root, reg.Parent(child))
	assert.Equal(t, SpanID(0), reg.Parent(root))
	assert.Equal(t, SpanID(0), reg.Parent(SpanID(999)))
}

func TestRegistry_Remove(t *testing.T) {
	reg := NewRegistry()
	id := reg.Register(0, SpanMeta{Name: "gone"})
	reg.Remove(id)

	_, ok := reg.Meta(id)
	assert.False(t, ok)

	// Removing twice is fine.
	reg.Remove(id)
}

func TestScope_RootFirstIncludingLeaf(t *testing.T) {
	reg := NewRegistry()
	root := reg.Register(0, SpanMeta{Name: "root"})
	mid := reg.Register(root, SpanMeta{Name: "mid"})
	leaf := reg.Register(mid, SpanMeta{Name: "leaf"})

	var got []SpanID
	reg.Scope(leaf).FromRoot(func(id SpanID) bool {
		got = append(got, id)
		return true
	})
	assert.Equal(t, []SpanID{root, mid, leaf}, got)
}

func TestScope_SingleConsumption(t *testing.T) {
	reg := NewRegistry()
	root := reg.Register(0, SpanMeta{Name: "root"})
	leaf := reg.Register(root, SpanMeta{Name: "leaf"})

	scope := reg.Scope(leaf)

	var first []SpanID
	scope.FromRoot(func(id SpanID) bool {
		first = append(first, id)
		return true
	})
	require.Len(t, first, 2)

	var second []SpanID
	scope.FromRoot(func(id SpanID) bool {
		second = append(second, id)
		return true
	})
	assert.Empty(t, second)
}

func TestScope_EarlyStopStillConsumes(t *testing.T) {
	reg := NewRegistry()
	root := reg.Register(0, SpanMeta{Name: "root"})
	leaf := reg.Register(root, SpanMeta{Name: "leaf"})

	scope := reg.Scope(leaf)
	scope.FromRoot(func(SpanID) bool { return false })

	var second []SpanID
	scope.FromRoot(func(id SpanID) bool {
		second = append(second, id)
		return true
	})
	assert.Empty(t, second)
}

func TestScope_UnknownSpanYieldsNothing(t *testing.T) {
	reg := NewRegistry()
	called := false
	reg.Scope(SpanID(42)).FromRoot(func(SpanID) bool {
		called = true
		return true
	})
	assert.False(t, called)

	var zero Scope
	zero.FromRoot(func(SpanID) bool {
		called = true
		return true
	})
	assert.False(t, called)
}

func TestScope_StopsAtRemovedAncestor(t *testing.T) {
	reg := NewRegistry()
	root := reg.Register(0, SpanMeta{Name: "root"})
	mid := reg.Register(root, SpanMeta{Name: "mid"})
	leaf := reg.Register(mid, SpanMeta{Name: "leaf"})

	reg.Remove(mid)

	var got []SpanID
	reg.Scope(leaf).FromRoot(func(id SpanID) bool {
		got = append(got, id)
		return true
	})
	// The walk stops at the gap; only the leaf remains reachable.
	assert.Equal(t, []SpanID{leaf}, got)
}
