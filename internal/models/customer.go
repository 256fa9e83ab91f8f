package models

import "time"

type Customer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TenantID     string    `gorm:"size:50;not null;index" json:"tenantId"`
	Business     *Business `gorm:"foreignKey:TenantID" json:"-"`
	BranchID     uint      `gorm:"not null;index" json:"branchId"`
	Branch       *Branch   `json:"branch,omitempty"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Phone        string    `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	Email        *string   `gorm:"size:100;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     bool      `gorm:"not null" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
