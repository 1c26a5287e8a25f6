package model

import (
	"slices"
	"strings"
)

// Role is a closed set of privileges. Unknown strings never become roles.
type Role string

// Roles.
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts s to a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// RoleSet is a set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from roles, skipping anything that is not a known role.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		if r == RoleUser || r == RoleAdmin {
			s[r] = struct{}{}
		}
	}
	return s
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Slice returns the roles in a stable order.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Identity is an authenticated principal as supplied by the identity
// provider. A nil *Identity is an unauthenticated viewer.
type Identity struct {
	ID    string
	Roles RoleSet
}

// NewIdentity returns an identity with the given roles.
func NewIdentity(id string, roles ...Role) *Identity {
	return &Identity{ID: id, Roles: NewRoleSet(roles...)}
}

// Authenticated reports whether id names a principal.
func Authenticated(id *Identity) bool {
	return id != nil && id.ID != ""
}

// HasRole reports whether id holds role. Unauthenticated identities hold none.
func HasRole(id *Identity, role Role) bool {
	if !Authenticated(id) {
		return false
	}
	return id.Roles.Has(role)
}

// IsOwner reports whether id posted item.
func IsOwner(id *Identity, item *Item) bool {
	if !Authenticated(id) || item == nil {
		return false
	}
	return item.PostedBy != "" && id.ID == item.PostedBy
}
