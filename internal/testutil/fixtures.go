package testutil

import (
	"testing"

	"seva-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func hash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return string(h)
}

func create(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("creating fixture %T: %v", v, err)
	}
}

func Business(t *testing.T, db *gorm.DB, id string) models.Business {
	t.Helper()
	b := models.Business{ID: id, Name: "Business " + id, IsActive: true}
	create(t, db, &b)
	return b
}

func Branch(t *testing.T, db *gorm.DB, tenantID, name string) models.Branch {
	t.Helper()
	b := models.Branch{TenantID: tenantID, Name: name, IsActive: true}
	create(t, db, &b)
	return b
}

// Employee creates an active staff member. branchID must be nil for super
// admins.
func Employee(t *testing.T, db *gorm.DB, tenantID string, branchID *uint, role models.Role, phone, password string) models.Employee {
	t.Helper()
	e := models.Employee{
		TenantID:     tenantID,
		BranchID:     branchID,
		Name:         string(role) + " " + phone,
		Phone:        phone,
		PasswordHash: hash(t, password),
		Role:         role,
		IsActive:     true,
	}
	create(t, db, &e)
	return e
}

func Customer(t *testing.T, db *gorm.DB, tenantID string, branchID uint, phone, password string) models.Customer {
	t.Helper()
	c := models.Customer{
		TenantID:     tenantID,
		BranchID:     branchID,
		Name:         "Customer " + phone,
		Phone:        phone,
		PasswordHash: hash(t, password),
		IsActive:     true,
	}
	create(t, db, &c)
	return c
}

func Ptr[T any](v T) *T { return &v }
