// Package payment records customer payments, manually or through the
// Razorpay checkout.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/httpx"
	"seva-backend/internal/metrics"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var columns = scope.Columns{Branch: "branch_id", Customer: "customer_id"}

type Store struct {
	db       *gorm.DB
	gateway  Gateway
	testMode bool
	audit    *audit.Writer
	metrics  *metrics.Metrics
	log      *logrus.Logger
	now      func() time.Time
}

func NewStore(db *gorm.DB, gw Gateway, testMode bool, aw *audit.Writer, m *metrics.Metrics, log *logrus.Logger) *Store {
	return &Store{db: db, gateway: gw, testMode: testMode, audit: aw, metrics: m, log: log, now: time.Now}
}

type Filter struct {
	BranchID   *uint
	CustomerID *uint
	Range      httpx.Range
}

func (s *Store) List(ctx context.Context, sc scope.Scope, f Filter) ([]models.Payment, error) {
	branchID, err := sc.Branch(f.BranchID)
	if err != nil {
		return nil, err
	}
	q := sc.Apply(s.db.WithContext(ctx).Model(&models.Payment{}), columns).Preload("Customer")
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Range.From != nil {
		q = q.Where("created_at >= ?", *f.Range.From)
	}
	if f.Range.To != nil {
		q = q.Where("created_at < ?", *f.Range.To)
	}

	var out []models.Payment
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func positiveAmount(a *decimal.Decimal) (decimal.Decimal, error) {
	if a == nil || !a.IsPositive() {
		return decimal.Zero, apperr.Validation("amount must be greater than zero")
	}
	return a.Round(2), nil
}

type RecordInput struct {
	CustomerID  uint             `json:"customerId"`
	WorkEntryID *uint            `json:"workEntryId"`
	Amount      *decimal.Decimal `json:"amount"`
	Mode        string           `json:"mode"`
	Notes       string           `json:"notes"`
}

// Record stores a manual payment. Without a linked work entry a completed
// one is created for it; a linked entry is marked completed. Everything
// happens in one transaction.
func (s *Store) Record(ctx context.Context, sc scope.Scope, in RecordInput) (models.Payment, error) {
	var p models.Payment
	if sc.ActorType() != models.UserTypeEmployee {
		return p, apperr.ErrForbidden
	}
	if in.CustomerID == 0 || in.Amount == nil || in.Mode == "" {
		return p, apperr.Validation("Customer, amount, and mode are required")
	}
	amount, err := positiveAmount(in.Amount)
	if err != nil {
		return p, err
	}
	mode := models.PaymentMode(in.Mode)
	if !mode.Valid() || mode == models.PaymentModePending {
		return p, apperr.Validation("mode must be one of cash, upi, test")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cust, err := scope.LoadCustomer(ctx, tx, sc, in.CustomerID)
		if err != nil {
			return err
		}

		var w models.WorkEntry
		if in.WorkEntryID != nil && *in.WorkEntryID != 0 {
			if err := tx.First(&w, "id = ?", *in.WorkEntryID).Error; err != nil {
				return apperr.FromDB(err, "work entry")
			}
			if w.CustomerID != cust.ID {
				return apperr.Validation("work entry belongs to a different customer")
			}
			err := tx.Model(&w).Updates(map[string]any{
				"status":       models.WorkStatusCompleted,
				"payment_mode": mode,
			}).Error
			if err != nil {
				return err
			}
		} else {
			actor := sc.ActorID()
			w = models.WorkEntry{
				TenantID:    cust.TenantID,
				BranchID:    cust.BranchID,
				CustomerID:  cust.ID,
				EmployeeID:  &actor,
				Description: "Payment received - " + cust.Name,
				Amount:      amount,
				Status:      models.WorkStatusCompleted,
				PaymentMode: mode,
			}
			if err := tx.Create(&w).Error; err != nil {
				return err
			}
		}

		actor := sc.ActorID()
		p = models.Payment{
			TenantID:    cust.TenantID,
			BranchID:    cust.BranchID,
			CustomerID:  cust.ID,
			WorkEntryID: &w.ID,
			Amount:      amount,
			Mode:        mode,
			Status:      models.PaymentStatusCompleted,
			Notes:       strings.TrimSpace(in.Notes),
			RecordedBy:  &actor,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &p.BranchID,
			EntityType:  "payment",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("%s payment of %s from customer %d", mode, amount.StringFixed(2), cust.ID),
			After:       p,
		})
	})
	if err != nil {
		return models.Payment{}, err
	}
	s.metrics.PaymentRecorded(string(p.Mode))
	return p, nil
}

type OrderInput struct {
	CustomerID uint              `json:"customerId"`
	Amount     *decimal.Decimal  `json:"amount"`
	Notes      map[string]string `json:"notes"`
}

type OrderResponse struct {
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	KeyID     string `json:"keyId"`
	PaymentID uint   `json:"paymentId"`
}

// CreateOrder opens a gateway order and a pending payment that Verify later
// completes. Customers may only pay for themselves.
func (s *Store) CreateOrder(ctx context.Context, sc scope.Scope, in OrderInput) (OrderResponse, error) {
	var out OrderResponse
	if in.CustomerID == 0 {
		if id := sc.CustomerID(); id != nil {
			in.CustomerID = *id
		}
	}
	if in.CustomerID == 0 || in.Amount == nil {
		return out, apperr.Validation("Customer ID and amount are required")
	}
	amount, err := positiveAmount(in.Amount)
	if err != nil {
		return out, err
	}

	cust, err := scope.LoadCustomer(ctx, s.db, sc, in.CustomerID)
	if err != nil {
		return out, err
	}

	paise := amount.Shift(2).IntPart()
	receipt := fmt.Sprintf("customer_%d_%d", cust.ID, s.now().UnixMilli())
	order, err := s.gateway.CreateOrder(ctx, paise, receipt, in.Notes)
	if err != nil {
		return out, err
	}

	p := models.Payment{
		TenantID:       cust.TenantID,
		BranchID:       cust.BranchID,
		CustomerID:     cust.ID,
		Amount:         amount,
		Mode:           models.PaymentModePending,
		Status:         models.PaymentStatusPending,
		GatewayOrderID: &order.ID,
	}
	if sc.ActorType() == models.UserTypeEmployee {
		actor := sc.ActorID()
		p.RecordedBy = &actor
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &p.BranchID,
			EntityType:  "payment",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: "gateway order " + order.ID + " created",
			After:       p,
		})
	})
	if err != nil {
		return out, err
	}

	return OrderResponse{
		OrderID:   order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		KeyID:     s.gateway.KeyID(),
		PaymentID: p.ID,
	}, nil
}

type VerifyInput struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

var errBadSignature = apperr.Validation("Payment verification failed")

// Verify completes the pending payment for a gateway order. A bad signature
// fails the payment, except in test mode where it is accepted with a
// warning.
func (s *Store) Verify(ctx context.Context, sc scope.Scope, in VerifyInput) (models.Payment, error) {
	var p models.Payment
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return p, apperr.Validation("Missing payment verification data")
	}

	if err := s.db.WithContext(ctx).First(&p, "gateway_order_id = ?", in.OrderID).Error; err != nil {
		return p, apperr.FromDB(err, "payment order")
	}
	if err := sc.Authorize(scope.Owner{TenantID: p.TenantID, BranchID: &p.BranchID, CustomerID: &p.CustomerID}); err != nil {
		return p, err
	}

	switch p.Status {
	case models.PaymentStatusCompleted:
		if p.GatewayPaymentID != nil && *p.GatewayPaymentID == in.PaymentID {
			return p, nil
		}
		return p, apperr.Conflict("order already paid")
	case models.PaymentStatusFailed:
		return p, apperr.Validation("payment already failed")
	}

	valid := s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature)
	if !valid && !s.testMode {
		s.settle(ctx, sc, &p, models.PaymentStatusFailed, models.PaymentModePending, in.PaymentID)
		return p, errBadSignature
	}
	mode := models.PaymentModeUPI
	if !valid {
		if s.log != nil {
			s.log.WithField("order_id", in.OrderID).Warn("payment signature verification failed, accepting in test mode")
		}
		mode = models.PaymentModeTest
	}
	if err := s.settle(ctx, sc, &p, models.PaymentStatusCompleted, mode, in.PaymentID); err != nil {
		return p, err
	}
	s.metrics.PaymentRecorded(string(mode))
	return p, nil
}

func (s *Store) settle(ctx context.Context, sc scope.Scope, p *models.Payment, status models.PaymentStatus, mode models.PaymentMode, gatewayPaymentID string) error {
	before := *p
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": status, "mode": mode}
		if status == models.PaymentStatusCompleted {
			updates["gateway_payment_id"] = gatewayPaymentID
		}
		// Guarded on pending so two concurrent verifications settle once.
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", p.ID, models.PaymentStatusPending).
			Updates(updates)
		if res.Error != nil {
			return apperr.FromDB(res.Error, "gateway payment")
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("payment already settled")
		}
		p.Status, p.Mode = status, mode
		if status == models.PaymentStatusCompleted {
			p.GatewayPaymentID = &gatewayPaymentID
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &p.BranchID,
			EntityType:  "payment",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("gateway payment %s %s", gatewayPaymentID, status),
			Before:      before,
			After:       *p,
		})
	})
	if err != nil && s.log != nil && !errors.Is(err, apperr.ErrConflict) {
		s.log.WithError(err).WithField("payment_id", p.ID).Error("settling gateway payment")
	}
	return err
}
