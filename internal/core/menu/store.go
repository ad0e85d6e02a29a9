package menu

import "sync"

// Store holds the permission tree and server-confirmed grant set for the
// current principal. The tree is always swapped wholesale: Replace publishes
// a fresh tree and grant set together so stale and fresh grants are never
// interleaved. All reads and writes are safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	tree       *Tree
	granted    map[string]struct{}
	generation uint64
	onReplace  []func(*Tree)
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{granted: make(map[string]struct{})}
}

// OnReplace registers a callback invoked after every Replace or Clear with
// the newly published tree (nil after Clear). Callbacks must be registered
// before the store is shared.
func (s *Store) OnReplace(fn func(*Tree)) {
	s.onReplace = append(s.onReplace, fn)
}

// Replace atomically swaps the stored tree and grant set, invalidating every
// derivation built on the previous tree.
func (s *Store) Replace(t *Tree, grantedIDs []string) {
	granted := make(map[string]struct{}, len(grantedIDs))
	for _, id := range grantedIDs {
		granted[id] = struct{}{}
	}

	s.mu.Lock()
	s.tree = t
	s.granted = granted
	s.generation++
	s.mu.Unlock()

	for _, fn := range s.onReplace {
		fn(t)
	}
}

// Clear empties the store. Used on logout and session expiry.
func (s *Store) Clear() {
	s.Replace(nil, nil)
}

// Tree returns the currently published tree (nil when empty).
func (s *Store) Tree() *Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Generation returns a counter incremented on every Replace. Consumers cache
// derivations keyed by generation instead of mutating shared state.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Empty reports whether no tree is currently published.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree == nil || len(s.tree.Roots) == 0
}

// IsGranted reports whether the node with the given id is accessible. A leaf
// is granted iff it is a member of the server-confirmed grant set. A group is
// granted iff at least one descendant leaf is granted; the group itself never
// carries an independent grant.
func (s *Store) IsGranted(nodeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node := FindFirst(s.tree, func(n *Node) bool { return n.ID == nodeID })
	if node == nil {
		return false
	}
	return s.grantedLocked(node)
}

func (s *Store) grantedLocked(n *Node) bool {
	if !n.IsGroup() {
		_, ok := s.granted[n.ID]
		return ok
	}
	for _, c := range n.Children {
		if s.grantedLocked(c) {
			return true
		}
	}
	return false
}

// FindFirstAccessiblePath returns the path of the first leaf, in depth-first
// left-to-right order, that is not breadcrumb-only and is granted. The second
// return value is false when no node qualifies; callers must treat that as a
// routing hard stop, not a default.
func (s *Store) FindFirstAccessiblePath() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node := FindFirst(s.tree, func(n *Node) bool {
		return !n.IsGroup() && n.Path != "" && !n.BreadcrumbOnly && s.grantedLocked(n)
	})
	if node == nil {
		return "", false
	}
	return node.Path, true
}

// GrantedIDs returns the raw grant set, for diagnostics and the web surface.
func (s *Store) GrantedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.granted))
	for id := range s.granted {
		out = append(out, id)
	}
	return out
}
