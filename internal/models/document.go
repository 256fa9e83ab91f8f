package models

import "time"

type Document struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TenantID     string    `gorm:"size:50;not null;index" json:"tenantId"`
	Business     *Business `gorm:"foreignKey:TenantID" json:"-"`
	BranchID     uint      `gorm:"not null;index" json:"branchId"`
	CustomerID   uint      `gorm:"not null;index" json:"customerId"`
	Customer     *Customer `json:"customer,omitempty"`
	OriginalName string    `gorm:"size:255;not null" json:"originalName"`
	BlobName     string    `gorm:"size:500;not null" json:"-"`
	ContentType  string    `gorm:"size:100" json:"contentType"`
	FileSize     int64     `json:"fileSize"`
	UploadedBy   uint      `gorm:"not null" json:"uploadedBy"`
	Uploader     *Employee `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}
