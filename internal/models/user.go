package models

import "fmt"

// Role is the authorisation tier carried in every session.
type Role string

const (
	RoleSuperAdmin  Role = "superAdmin"
	RoleBranchAdmin Role = "branchAdmin"
	RoleEmployee    Role = "employee"
	RoleCustomer    Role = "customer"
)

// ParseRole accepts the canonical spellings and the snake_case ones found in
// older records. Anything else is rejected.
func ParseRole(s string) (Role, error) {
	switch s {
	case "superAdmin", "super_admin":
		return RoleSuperAdmin, nil
	case "branchAdmin", "branch_admin":
		return RoleBranchAdmin, nil
	case "employee":
		return RoleEmployee, nil
	case "customer":
		return RoleCustomer, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Spellings lists every stored form of r, legacy snake_case included.
func (r Role) Spellings() []string {
	switch r {
	case RoleSuperAdmin:
		return []string{string(r), "super_admin"}
	case RoleBranchAdmin:
		return []string{string(r), "branch_admin"}
	case RoleEmployee, RoleCustomer:
		return []string{string(r)}
	}
	return []string{string(r)}
}

// Valid is true only for the canonical spellings.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleBranchAdmin, RoleEmployee, RoleCustomer:
		return true
	}
	return false
}

// BranchScoped reports whether sessions with this role are confined to one
// branch. Unknown roles are treated as scoped.
func (r Role) BranchScoped() bool {
	switch r {
	case RoleSuperAdmin:
		return false
	case RoleBranchAdmin, RoleEmployee, RoleCustomer:
		return true
	}
	return true
}

// IsStaff is true for the roles stored in the employees table.
func (r Role) IsStaff() bool {
	switch r {
	case RoleSuperAdmin, RoleBranchAdmin, RoleEmployee:
		return true
	case RoleCustomer:
		return false
	}
	return false
}

// UserType returns the identity table a role lives in.
func (r Role) UserType() UserType {
	if r == RoleCustomer {
		return UserTypeCustomer
	}
	return UserTypeEmployee
}

// StaffRoles are the roles an employee record may hold.
var StaffRoles = []Role{RoleSuperAdmin, RoleBranchAdmin, RoleEmployee}

// UserType selects the identity table used for login.
type UserType string

const (
	UserTypeEmployee UserType = "employee"
	UserTypeCustomer UserType = "customer"
)

func ParseUserType(s string) (UserType, error) {
	switch UserType(s) {
	case UserTypeEmployee, UserTypeCustomer:
		return UserType(s), nil
	}
	return "", fmt.Errorf("unknown user type %q", s)
}
