package models

import "time"

type AuditAction string

const (
	AuditActionCreate    AuditAction = "create"
	AuditActionUpdate    AuditAction = "update"
	AuditActionDelete    AuditAction = "delete"
	AuditActionLogin     AuditAction = "login"
	AuditActionProvision AuditAction = "provision"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	TenantID string `gorm:"size:50;not null;index" json:"tenantId"`
	BranchID *uint  `gorm:"index" json:"branchId"`

	// Who acted. ActorType tells the employees and customers tables apart.
	ActorID   uint     `json:"actorId"`
	ActorType UserType `gorm:"size:20" json:"actorType"`

	// e.g. "branch", "employee", "customer", "payment"
	EntityType string      `gorm:"size:50;index" json:"entityType"`
	EntityID   uint        `gorm:"index" json:"entityId"`
	Action     AuditAction `gorm:"size:20" json:"action"`

	Description string `gorm:"size:255" json:"description"`

	// JSON snapshots; "null" when absent.
	BeforeData string `gorm:"type:text" json:"beforeData"`
	AfterData  string `gorm:"type:text" json:"afterData"`
}
