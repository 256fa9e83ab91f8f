package testutil

import (
	"seva-backend/internal/models"
	"seva-backend/internal/session"
)

func SuperAdminSession(tenantID string, id uint) session.Session {
	return session.Session{UserID: id, Role: models.RoleSuperAdmin, UserType: models.UserTypeEmployee, TenantID: tenantID}
}

// StaffSession is a branch admin or employee session.
func StaffSession(tenantID string, branchID, id uint, role models.Role) session.Session {
	return session.Session{UserID: id, Role: role, UserType: models.UserTypeEmployee, TenantID: tenantID, BranchID: &branchID}
}

func CustomerSession(c models.Customer) session.Session {
	b := c.BranchID
	return session.Session{UserID: c.ID, Role: models.RoleCustomer, UserType: models.UserTypeCustomer, TenantID: c.TenantID, BranchID: &b}
}
