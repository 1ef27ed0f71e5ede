package model

import "github.com/google/uuid"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   uuid.UUID
	Role     Role
	Username string
	Email    string
}

// Authenticated reports whether the identity names a user.
func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Authenticated() && i.Role == RoleAdmin
}

// RequireUser returns ErrUnauthorised for anonymous identities.
func (i Identity) RequireUser() error {
	if !i.Authenticated() {
		return ErrUnauthorised
	}
	return nil
}

// RequireAdmin returns ErrUnauthorised or ErrForbidden unless the caller is an admin.
func (i Identity) RequireAdmin() error {
	if err := i.RequireUser(); err != nil {
		return err
	}
	if i.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}
