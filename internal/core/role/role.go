// Package role defines the fixed set of principal roles used across the
// session core. Role is an enumerated type rather than a free-form string so
// that label resolution and home-path fallbacks can be matched exhaustively.
package role

import "fmt"

// Role identifies the job function assigned to a principal.
type Role string

const (
	SystemManager Role = "SYSTEMMANAGER"
	Admin         Role = "ADMIN"
	Doctor        Role = "DOCTOR"
	Nurse         Role = "NURSE"
	Imaging       Role = "RIS"
	Lab           Role = "LIS"
	Patient       Role = "PATIENT"
)

// All lists every valid role in a stable order.
var All = []Role{SystemManager, Admin, Doctor, Nurse, Imaging, Lab, Patient}

// Parse converts a role code received from the backend into a Role.
func Parse(code string) (Role, error) {
	switch Role(code) {
	case SystemManager, Admin, Doctor, Nurse, Imaging, Lab, Patient:
		return Role(code), nil
	}
	return "", fmt.Errorf("unknown role code: %q", code)
}

// IsValid reports whether r is one of the enumerated roles.
func (r Role) IsValid() bool {
	_, err := Parse(string(r))
	return err == nil
}

func (r Role) String() string {
	return string(r)
}

// FallbackHome maps each role to its historical default landing route. It is
// consulted only when the permission tree yields no accessible path at all;
// normal home resolution is always derived from the tree.
func (r Role) FallbackHome() string {
	switch r {
	case SystemManager, Admin:
		return "/admin/users"
	case Doctor:
		return "/dashboard"
	case Nurse:
		return "/patients"
	case Imaging:
		return "/imaging"
	case Lab:
		return "/lab"
	case Patient:
		return "/my"
	}
	return ""
}
