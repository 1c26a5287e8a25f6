package model

import "testing"

func TestHasRole(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		role     Role
		expected bool
	}{
		{"admin has admin", NewIdentity("a1", RoleAdmin), RoleAdmin, true},
		{"admin without user role", NewIdentity("a1", RoleAdmin), RoleUser, false},
		{"user has user", NewIdentity("u1", RoleUser), RoleUser, true},
		{"user lacks admin", NewIdentity("u1", RoleUser), RoleAdmin, false},
		{"both roles", NewIdentity("a2", RoleUser, RoleAdmin), RoleAdmin, true},
		// Unauthenticated identities fail closed.
		{"nil identity", nil, RoleAdmin, false},
		{"empty id", NewIdentity("", RoleAdmin), RoleAdmin, false},
		{"unknown role dropped", NewIdentity("u2", Role("admin ")), RoleAdmin, false},
	}

	for _, tt := range tests {
		if got := HasRole(tt.identity, tt.role); got != tt.expected {
			t.Errorf("%s: HasRole = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestIsOwner(t *testing.T) {
	item := &Item{ID: "i1", PostedBy: "u1"}

	tests := []struct {
		name     string
		identity *Identity
		item     *Item
		expected bool
	}{
		{"poster", NewIdentity("u1", RoleUser), item, true},
		{"other user", NewIdentity("u2", RoleUser), item, false},
		{"admin is not owner", NewIdentity("a1", RoleAdmin), item, false},
		{"nil identity", nil, item, false},
		{"nil item", NewIdentity("u1"), nil, false},
		{"empty ids never match", NewIdentity(""), &Item{ID: "i2"}, false},
	}

	for _, tt := range tests {
		if got := IsOwner(tt.identity, tt.item); got != tt.expected {
			t.Errorf("%s: IsOwner = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"ADMIN", RoleAdmin, true},
		{"admin", RoleAdmin, true},
		{" user ", RoleUser, true},
		{"manager", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRoleSetSlice(t *testing.T) {
	s := NewRoleSet(RoleUser, RoleAdmin, RoleUser)
	got := s.Slice()
	if len(got) != 2 || got[0] != RoleAdmin || got[1] != RoleUser {
		t.Errorf("Slice() = %v, want [ADMIN USER]", got)
	}
}
