// Package models contains the persistent entities of the service.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/common"
	"github.com/uptrace/bun"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// Roles lists every valid role, highest privilege first.
var Roles = []Role{RoleOwner, RoleManager, RoleViewer}

// ParseRole converts s into a Role. Unknown values fail with
// common.ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner, RoleManager, RoleViewer:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }

// IsOwner reports whether r grants administrative access.
func (r Role) IsOwner() bool { return r == RoleOwner }

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk" json:"id"`
	FirstName string    `bun:"first_name,notnull" json:"firstName"`
	LastName  string    `bun:"last_name,notnull" json:"lastName"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"`
	Active    bool      `bun:"active,notnull" json:"active"`
	Role      Role      `bun:"role,notnull" json:"role"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}
