package models

// PrincipalType distinguishes the two kinds of authenticated actors.
type PrincipalType string

const (
	PrincipalTypeUser  PrincipalType = "user"
	PrincipalTypeAdmin PrincipalType = "admin"
)

// Principal is an authenticated actor, either a User or an Admin. It is a
// tagged union over the two concrete types rather than a shared base, so
// authorization can stay a pure pattern-match.
type Principal interface {
	PrincipalID() uint
	PrincipalType() PrincipalType
	// PrincipalRole returns the role string within the actor's own role set
	// ("customer"/"seller" for users, "super"/"moderator" for admins).
	PrincipalRole() string
	// IsActivePrincipal reports whether the actor may hold a session at all.
	IsActivePrincipal() bool
}
