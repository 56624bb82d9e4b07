package domain

import "time"

// Role is a named permission bundle granted to a principal.
type Role string

const (
	RoleAdmin              Role = "admin"
	RolePropertiesAdmin    Role = "properties_admin"
	RoleCategoriesAdmin    Role = "categories_admin"
	RoleNotificationsAdmin Role = "notifications_admin"
	RoleModerator          Role = "moderator"
	RoleUser               Role = "user"
)

// ParseRole maps a stored string onto the closed role enumeration.
// Unknown values fall back to RoleUser so a bad row can never grant
// privileges it was not meant to.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RolePropertiesAdmin, RoleCategoriesAdmin, RoleNotificationsAdmin, RoleModerator, RoleUser:
		return Role(s)
	default:
		return RoleUser
	}
}

// DefaultRoles is the implicit grant for a principal with no assignment rows.
func DefaultRoles() []Role {
	return []Role{RoleUser}
}

// RoleAssignment is a single (principal, role) grant stored remotely.
// A principal may hold any number of assignments.
type RoleAssignment struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	PrincipalID string    `json:"user_id" bson:"user_id"`
	Role        Role      `json:"role" bson:"role"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Permissions is the effective capability set derived from a principal's
// roles. It is never persisted; recompute it whenever the assignments or the
// principal change.
type Permissions struct {
	Admin              bool `json:"is_admin"`
	PropertiesAdmin    bool `json:"is_properties_admin"`
	CategoriesAdmin    bool `json:"is_categories_admin"`
	NotificationsAdmin bool `json:"is_notifications_admin"`
	Moderator          bool `json:"is_moderator"`
	AnyAdmin           bool `json:"is_any_admin"`
}

// PermissionsFor derives the capability flags from a role list.
// The admin role subsumes every domain-specific admin flag.
func PermissionsFor(roles []Role) Permissions {
	has := func(want Role) bool {
		for _, r := range roles {
			if r == want {
				return true
			}
		}
		return false
	}

	p := Permissions{}
	p.Admin = has(RoleAdmin)
	p.PropertiesAdmin = has(RolePropertiesAdmin) || p.Admin
	p.CategoriesAdmin = has(RoleCategoriesAdmin) || p.Admin
	p.NotificationsAdmin = has(RoleNotificationsAdmin) || p.Admin
	p.Moderator = has(RoleModerator)
	p.AnyAdmin = p.Admin || p.PropertiesAdmin || p.CategoriesAdmin || p.NotificationsAdmin || p.Moderator
	return p
}

// DefaultPermissions is the fail-open capability set: plain user, no admin.
func DefaultPermissions() Permissions {
	return PermissionsFor(DefaultRoles())
}
