package rbac

import "strings"

// Access is what a caller may do with a resource that belongs to a subject,
// such as a session or a result.
type Access int

const (
	AccessNone Access = iota
	AccessRead
	AccessWrite
)

func (a Access) CanRead() bool  { return a >= AccessRead }
func (a Access) CanWrite() bool { return a >= AccessWrite }

// grants is one role's permissions: exact names plus "prefix:*" wildcards.
type grants struct {
	all      bool
	exact    map[string]struct{}
	prefixes []string
}

func (g grants) allows(perm string) bool {
	if g.all {
		return true
	}
	if _, ok := g.exact[perm]; ok {
		return true
	}
	for _, p := range g.prefixes {
		if strings.HasPrefix(perm, p) {
			return true
		}
	}
	return false
}

type Checker struct {
	roles map[string]grants
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	c := &Checker{roles: make(map[string]grants, len(rp))}
	for role, perms := range rp {
		g := grants{exact: map[string]struct{}{}}
		for _, p := range perms {
			switch {
			case p == "*":
				g.all = true
			case strings.HasSuffix(p, "*"):
				g.prefixes = append(g.prefixes, strings.TrimSuffix(p, "*"))
			default:
				g.exact[p] = struct{}{}
			}
		}
		c.roles[role] = g
	}
	return c
}

func (c *Checker) Has(role, perm string) bool {
	g, ok := c.roles[role]
	return ok && g.allows(perm)
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// Access resolves a caller against ownerID. Owners act on their own sessions
// and results; staff with result:view-all may read anyone's but never act for
// them.
func (c *Checker) Access(role, subject, ownerID string) Access {
	switch {
	case subject != "" && subject == ownerID:
		return AccessWrite
	case c.Has(role, PermResultViewAll):
		return AccessRead
	}
	return AccessNone
}
