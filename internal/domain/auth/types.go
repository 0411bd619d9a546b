// Package auth contains domain-level types for the persisted auth state.
// It is pure and free of framework/adapter concerns.
package auth

import "strings"

// Role represents an application's authorization role.
// Keep string form for easy persistence under the userRole key.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Durable storage keys. All three are written together and removed together.
const (
	KeyToken   = "jwtToken"
	KeyRole    = "userRole"
	KeyProfile = "userData"
)

// StorageKeys returns the three durable keys in write order.
func StorageKeys() []string {
	return []string{KeyToken, KeyRole, KeyProfile}
}

// AllRoles returns the fixed role enumeration, lowest rank first.
func AllRoles() []Role {
	return []Role{RoleUser, RoleAdmin, RoleSuperAdmin}
}

// IsValid reports whether r is one of the fixed roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole parses a role name. Surrounding whitespace is ignored; matching is case-sensitive.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(s))
	return r, r.IsValid()
}

// Profile is an opaque mapping of user profile fields (id, name, email...).
type Profile map[string]any

// Clone returns a deep copy of the nested maps and slices so callers cannot
// mutate stored state.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case Profile:
		return t.Clone()
	case []any:
		if t == nil {
			return t
		}
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Snapshot is a point-in-time view of the auth state.
// Role and Profile are present iff Token is non-empty in a consistent state;
// an authenticated snapshot with an empty Role is the safeguard state.
type Snapshot struct {
	Token           string  `json:"-"`
	Role            Role    `json:"role,omitempty"`
	Profile         Profile `json:"profile,omitempty"`
	IsAuthenticated bool    `json:"authenticated"`
}

// HasRole reports whether a role is recorded on the snapshot.
func (s Snapshot) HasRole() bool { return s.Role != "" }
