package models

import "time"

// Business is a tenant. Every other record carries its ID as tenant_id.
type Business struct {
	ID        string    `gorm:"primaryKey;size:50" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Logo      string    `gorm:"size:500" json:"logo"`
	Website   string    `gorm:"size:200" json:"website"`
	Address   string    `gorm:"size:500" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Email     string    `gorm:"size:100" json:"email"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
