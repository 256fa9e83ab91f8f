package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WorkStatus string

const (
	WorkStatusPending   WorkStatus = "pending"
	WorkStatusCompleted WorkStatus = "completed"
)

func (s WorkStatus) Valid() bool {
	return s == WorkStatusPending || s == WorkStatusCompleted
}

// WorkEntry is a billable service performed for a customer. Tenant and
// branch always mirror the customer's.
type WorkEntry struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	TenantID    string          `gorm:"size:50;not null;index" json:"tenantId"`
	Business    *Business       `gorm:"foreignKey:TenantID" json:"-"`
	BranchID    uint            `gorm:"not null;index" json:"branchId"`
	Branch      *Branch         `json:"branch,omitempty"`
	CustomerID  uint            `gorm:"not null;index" json:"customerId"`
	Customer    *Customer       `json:"customer,omitempty"`
	EmployeeID  *uint           `gorm:"index" json:"employeeId"`
	Employee    *Employee       `json:"employee,omitempty"`
	Description string          `gorm:"size:500;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status      WorkStatus      `gorm:"size:20;not null" json:"status"`
	PaymentMode PaymentMode     `gorm:"size:20;not null" json:"paymentMode"`
	CreatedAt   time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
