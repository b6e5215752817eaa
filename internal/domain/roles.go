package domain

import "strings"

// Role is a capability tag granted to an identity. An identity may
// hold any number of roles at once.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManufacturer Role = "manufacturer"
	RoleIntermediary Role = "intermediary"
	RolePharmacist   Role = "pharmacist"
	RoleDoctor       Role = "doctor"
	RolePatient      Role = "patient"
	RoleInsurer      Role = "insurer"
)

var allRoles = []Role{
	RoleAdmin,
	RoleManufacturer,
	RoleIntermediary,
	RolePharmacist,
	RoleDoctor,
	RolePatient,
	RoleInsurer,
}

func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole maps a case-insensitive role name to its Role. The second
// return is false for unknown names.
func ParseRole(name string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(name)))
	for _, role := range allRoles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// RoleGrant records one identity holding one role.
type RoleGrant struct {
	Identity  string
	Role      Role
	GrantedBy string
}
