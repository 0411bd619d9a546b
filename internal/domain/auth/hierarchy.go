package auth

// roleRank orders roles: super_admin > admin > user.
var roleRank = map[Role]int{
	RoleUser:       0,
	RoleAdmin:      1,
	RoleSuperAdmin: 2,
}

// Rank returns the hierarchy rank of r and whether r is ranked at all.
func Rank(r Role) (int, bool) {
	rank, ok := roleRank[r]
	return rank, ok
}

// Dominates reports whether r sits strictly above other in the hierarchy.
// Unranked roles neither dominate nor are dominated.
func (r Role) Dominates(other Role) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	or, ok := roleRank[other]
	if !ok {
		return false
	}
	return rr > or
}

// Satisfies reports whether r may access a route that lists allowed.
//
// Exact membership always wins. Otherwise r is granted when it dominates
// any one of the listed roles, so admin passes ["super_admin", "user"] while
// a route listing only ["super_admin"] still rejects admin and user.
func (r Role) Satisfies(allowed []Role) bool {
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	for _, a := range allowed {
		if r.Dominates(a) {
			return true
		}
	}
	return false
}
