package model

import "time"

// User is a registered member of the university. Users are the principals
// the identity provider resolves tokens to.
type User struct {
	ID           string    `json:"id"`
	UniversityID string    `json:"university_id"`
	Name         string    `json:"name"`
	ContactInfo  string    `json:"contact_info,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity returns the principal for u.
func (u *User) Identity() *Identity {
	if u == nil {
		return nil
	}
	return NewIdentity(u.ID, u.Roles...)
}
