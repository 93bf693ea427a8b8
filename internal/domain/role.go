package domain

import "fmt"

// Role identifies one of the two peer endpoints of a user's device pair.
// "primary" is the laptop side, "secondary" the phone side.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// ParseRole converts a wire/path value into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePrimary:
		return RolePrimary, nil
	case RoleSecondary:
		return RoleSecondary, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Peer returns the opposite role of the pair.
func (r Role) Peer() Role {
	if r == RolePrimary {
		return RoleSecondary
	}
	return RolePrimary
}

func (r Role) String() string {
	return string(r)
}

// Identity is a resolved, already-authenticated caller: one user acting
// as one device role. The relay core trusts it; the session layer owns
// producing it.
type Identity struct {
	Username string
	Role     Role
}
