package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentModeCash    PaymentMode = "cash"
	PaymentModeUPI     PaymentMode = "upi"
	PaymentModeTest    PaymentMode = "test"
	PaymentModePending PaymentMode = "pending"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeUPI, PaymentModeTest, PaymentModePending:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Payment struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	TenantID         string          `gorm:"size:50;not null;index" json:"tenantId"`
	Business         *Business       `gorm:"foreignKey:TenantID" json:"-"`
	BranchID         uint            `gorm:"not null;index" json:"branchId"`
	CustomerID       uint            `gorm:"not null;index" json:"customerId"`
	Customer         *Customer       `json:"customer,omitempty"`
	WorkEntryID      *uint           `gorm:"index" json:"workEntryId"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Mode             PaymentMode     `gorm:"size:20;not null" json:"mode"`
	Status           PaymentStatus   `gorm:"size:20;not null" json:"status"`
	GatewayOrderID   *string         `gorm:"size:100" json:"gatewayOrderId"`
	GatewayPaymentID *string         `gorm:"size:100;uniqueIndex" json:"gatewayPaymentId"`
	Notes            string          `gorm:"size:500" json:"notes"`
	RecordedBy       *uint           `json:"recordedBy"`
	CreatedAt        time.Time       `gorm:"index" json:"createdAt"`
}
