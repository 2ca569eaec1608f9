// Package user models the named principals read from the CDR usr and
// grp tables. The core never writes these; they are consulted during
// authorization.
package user

import "context"

// User is one named principal with its group memberships.
type User struct {
	ID       uint
	Name     string
	FullName string
	Email    string
	Phone    string
	Groups   []string
}

// InGroup reports membership in a named group.
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// Repository reads user profiles.
type Repository interface {
	// GetByName returns the profile for a user name, or nil when
	// unknown.
	GetByName(ctx context.Context, name string) (*User, error)
	// PasswordHash returns the stored credential hash for local API
	// accounts, or empty when the account has none.
	PasswordHash(ctx context.Context, name string) (string, error)
}
