package models

import "time"

type Branch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  string    `gorm:"size:50;not null;index;uniqueIndex:idx_branches_tenant_name" json:"tenantId"`
	Business  *Business `gorm:"foreignKey:TenantID" json:"-"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_branches_tenant_name" json:"name"`
	Code      string    `gorm:"size:20" json:"code"`
	City      string    `gorm:"size:100" json:"city"`
	Address   string    `gorm:"size:255" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
