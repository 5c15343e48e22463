package identity

import "strings"

// RoleHierarchy expands a role into every role it implies, e.g.
// ROLE_SUPER_ADMIN -> ROLE_ADMIN -> ROLE_USER.
type RoleHierarchy struct {
	children map[string][]string
}

// NewRoleHierarchy builds a hierarchy from parent -> implied roles. Role names are
// upper-cased since configuration keys may arrive lower-cased.
func NewRoleHierarchy(edges map[string][]string) *RoleHierarchy {
	h := &RoleHierarchy{children: make(map[string][]string, len(edges))}
	for parent, implied := range edges {
		p := normalizeRole(parent)
		for _, child := range implied {
			h.children[p] = append(h.children[p], normalizeRole(child))
		}
	}
	return h
}

// Expand returns the reachable roles of the given roles, in discovery order and
// without duplicates. Cycles are tolerated.
func (h *RoleHierarchy) Expand(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	queue := make([]string, 0, len(roles))
	for _, r := range roles {
		queue = append(queue, normalizeRole(r))
	}

	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
		if h != nil {
			queue = append(queue, h.children[r]...)
		}
	}
	return out
}

func normalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}
