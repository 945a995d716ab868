package spanline

import (
	"sync"
	"sync/atomic"
)

// SpanID identifies one live span within a Registry. The zero value means
// "no span".
type SpanID uint64

// SpanMeta is the static metadata a span is created with.
type SpanMeta struct {
	// Target is the subsystem path the span belongs to, e.g. "api.orders".
	Target string
	// Name is the span's operation name.
	Name string
}

// Registry is the span tree. It only tracks identity, metadata and parent
// links; attribute storage belongs to the layers observing the spans. All
// methods are safe for concurrent use.
//
// Lookups of unknown ids degrade to no-ops everywhere: a missing span must
// never disturb the instrumented program.
type Registry struct {
	mu     sync.RWMutex
	spans  map[SpanID]*spanNode
	nextID atomic.Uint64
}

type spanNode struct {
	parent SpanID
	meta   SpanMeta
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{spans: make(map[SpanID]*spanNode)}
}

// Register adds a span under parent (zero for a root span) and returns its id.
func (g *Registry) Register(parent SpanID, meta SpanMeta) SpanID {
	id := SpanID(g.nextID.Add(1))
	g.mu.Lock()
	g.spans[id] = &spanNode{parent: parent, meta: meta}
	g.mu.Unlock()
	return id
}

// Meta returns the metadata recorded for id.
func (g *Registry) Meta(id SpanID) (SpanMeta, bool) {
	g.mu.RLock()
	node, ok := g.spans[id]
	g.mu.RUnlock()
	if !ok {
		return SpanMeta{}, false
	}
	return node.meta, true
}

// Parent returns the parent of id, or zero for roots and unknown ids.
func (g *Registry) Parent(id SpanID) SpanID {
	g.mu.RLock()
	node, ok := g.spans[id]
	g.mu.RUnlock()
	if !ok {
		return 0
	}
	return node.parent
}

// Remove forgets a span. Children that outlive their parent keep working;
// ancestor walks simply stop at the gap.
func (g *Registry) Remove(id SpanID) {
	g.mu.Lock()
	delete(g.spans, id)
	g.mu.Unlock()
}

// Scope returns a one-shot, root-first traversal of the chain ending at id,
// including id itself. The traversal may be consumed exactly once; later
// consumptions yield nothing.
func (g *Registry) Scope(id SpanID) *Scope {
	return &Scope{reg: g, leaf: id}
}

// Scope is a single-use ancestor-chain traversal. The zero value yields
// nothing.
type Scope struct {
	reg  *Registry
	leaf SpanID
	used atomic.Bool
}

// FromRoot visits every span in the chain from the root down to (and
// including) the leaf. Returning false from fn stops the walk early; the
// scope counts as consumed either way.
func (s *Scope) FromRoot(fn func(id SpanID) bool) {
	if s == nil || s.reg == nil {
		return
	}
	if !s.used.CompareAndSwap(false, true) {
		return
	}
	ids := s.chain()
	for i := len(ids) - 1; i >= 0; i-- {
		if !fn(ids[i]) {
			return
		}
	}
}

// chain collects leaf-to-root ids. The walk stops at the first id the
// registry no longer knows about.
func (s *Scope) chain() []SpanID {
	var ids []SpanID
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	for id := s.leaf; id != 0; {
		node, ok := s.reg.spans[id]
		if !ok {
			break
		}
		ids = append(ids, id)
		id = node.parent
	}
	return ids
}
