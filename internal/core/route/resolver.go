// Package route derives the navigable route table and the default landing
// route from the permission tree. The table is never mutated in place; it is
// recomputed from the store whenever the tree generation changes, so it can
// never diverge from the published grants.
package route

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/cdss/cdss-web/internal/core/menu"
	"github.com/cdss/cdss-web/internal/core/role"
)

// Entry is one navigable route: an accessible leaf with a path, resolved to
// the rendering component the presentation layer registered for its id.
type Entry struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Icon      string `json:"icon,omitempty"`
	Label     string `json:"label"`
	Component string `json:"component"`
}

// BuildAccessibleList flattens the tree depth-first and keeps every node
// that is a leaf, has a path, is not breadcrumb-only, and is granted. Group
// nodes are never routable; only their accessible leaf descendants are.
// Pure: the grant decision is delegated to the supplied predicate.
func BuildAccessibleList(t *menu.Tree, granted func(n *menu.Node) bool) []*menu.Node {
	var out []*menu.Node
	menu.Walk(t, func(n *menu.Node) menu.WalkOrder {
		if !n.IsGroup() && n.Path != "" && !n.BreadcrumbOnly && granted(n) {
			out = append(out, n)
		}
		return menu.Continue
	})
	return out
}

// ResolveHomePath returns the path of the first leaf, depth-first
// left-to-right, that is not breadcrumb-only and is granted. The second
// return value is false when no node qualifies: callers must surface a
// "no home" holding state rather than navigate.
func ResolveHomePath(t *menu.Tree, granted func(n *menu.Node) bool) (string, bool) {
	n := menu.FindFirst(t, func(n *menu.Node) bool {
		return !n.IsGroup() && n.Path != "" && !n.BreadcrumbOnly && granted(n)
	})
	if n == nil {
		return "", false
	}
	return n.Path, true
}

// Resolver computes route tables against the live store, memoized per tree
// generation and role.
type Resolver struct {
	store    *menu.Store
	registry map[string]string // node id -> component identifier
	logger   zerolog.Logger

	mu      sync.Mutex
	memoGen uint64
	memo    map[role.Role][]Entry
}

// NewResolver builds a Resolver over the store. The registry maps node ids
// to the SPA component identifiers owned by the presentation layer.
func NewResolver(store *menu.Store, registry map[string]string, logger zerolog.Logger) *Resolver {
	return &Resolver{
		store:    store,
		registry: registry,
		logger:   logger.With().Str("component", "route").Logger(),
		memo:     make(map[role.Role][]Entry),
	}
}

// granted returns the grant predicate for a role, applying the explicit
// system-manager short-circuit: that role bypasses the stored grant set
// entirely (the tree itself is untouched).
func (r *Resolver) granted(ro role.Role) func(n *menu.Node) bool {
	if ro == role.SystemManager {
		return func(*menu.Node) bool { return true }
	}
	return func(n *menu.Node) bool { return r.store.IsGranted(n.ID) }
}

// AccessibleList returns the route table for the given role. Leaves whose id
// has no registered component are skipped with a diagnostic so one
// misconfigured menu entry cannot break the whole navigation.
func (r *Resolver) AccessibleList(ro role.Role) []Entry {
	gen := r.store.Generation()

	r.mu.Lock()
	if gen == r.memoGen {
		if entries, ok := r.memo[ro]; ok {
			r.mu.Unlock()
			return entries
		}
	} else {
		r.memoGen = gen
		r.memo = make(map[role.Role][]Entry)
	}
	r.mu.Unlock()

	nodes := BuildAccessibleList(r.store.Tree(), r.granted(ro))
	entries := make([]Entry, 0, len(nodes))
	for _, n := range nodes {
		component, ok := r.registry[n.ID]
		if !ok {
			r.logger.Warn().Str("menu_id", n.ID).Msg("no component registered for menu entry; skipping")
			continue
		}
		entries = append(entries, Entry{
			ID:        n.ID,
			Path:      n.Path,
			Icon:      n.Icon,
			Label:     menu.Label(n, ro),
			Component: component,
		})
	}

	r.mu.Lock()
	if r.memoGen == gen {
		r.memo[ro] = entries
	}
	r.mu.Unlock()
	return entries
}

// HomePath returns the default landing route for the given role, honoring
// the system-manager bypass. ok is false when the tree yields no accessible
// home: a hard stop for routing.
func (r *Resolver) HomePath(ro role.Role) (string, bool) {
	return ResolveHomePath(r.store.Tree(), r.granted(ro))
}
