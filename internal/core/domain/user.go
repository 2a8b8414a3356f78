package domain

import "time"

const (
	RoleAdmin      = "admin"
	RoleDoctor     = "doctor"
	RoleNurse      = "nurse"
	RolePharmacist = "pharmacist"
)

// landingPaths maps a role name to the dashboard a user lands on.
var landingPaths = map[string]string{
	RoleAdmin:      "/admin/dashboard",
	RoleDoctor:     "/doctor/dashboard",
	RoleNurse:      "/nurse/dashboard",
	RolePharmacist: "/pharmacist/dashboard",
}

// LandingPath returns the default dashboard for a role name. Unknown and
// empty roles fall back to the admin dashboard.
func LandingPath(role string) string {
	if p, ok := landingPaths[role]; ok {
		return p
	}
	return landingPaths[RoleAdmin]
}

// Role is the authorization subject attached to a user. Name is the only
// field compared against route allow-lists.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// User is the identity record returned by the clinic backend.
type User struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	Specialization string     `json:"specialization,omitempty"`
	LicenseNumber  string     `json:"license_number,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// RoleName is nil-safe.
func (u *User) RoleName() string {
	if u == nil {
		return ""
	}
	return u.Role.Name
}

// HasRole reports whether the user's role name is in roles (exact match).
func (u *User) HasRole(roles ...string) bool {
	name := u.RoleName()
	if name == "" {
		return false
	}
	for _, r := range roles {
		if r == name {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no pointers with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		c.CreatedAt = &t
	}
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
