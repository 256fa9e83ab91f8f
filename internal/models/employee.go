package models

import "time"

// Employee is a staff identity. Super admins have no branch; every other
// staff role is pinned to a branch of the same tenant.
type Employee struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TenantID     string    `gorm:"size:50;not null;index" json:"tenantId"`
	Business     *Business `gorm:"foreignKey:TenantID" json:"-"`
	BranchID     *uint     `gorm:"index" json:"branchId"`
	Branch       *Branch   `json:"branch,omitempty"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Phone        string    `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	Email        *string   `gorm:"size:100;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:20;not null" json:"role"`
	IsActive     bool      `gorm:"not null" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
