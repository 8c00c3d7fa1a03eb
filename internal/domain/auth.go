package domain

import "time"

// Role differentiates school staff from secretariat staff.
type Role string

const (
	RoleEscola     Role = "ESCOLA"
	RoleSecretaria Role = "SECRETARIA"
)

// Principal identifies an authenticated caller.
type Principal struct {
	Role  Role
	Email string
	INEP  INEP
}

// Token represents issued authentication token metadata.
type Token struct {
	Value     string
	Role      Role
	INEP      INEP
	ExpiresAt time.Time
}
