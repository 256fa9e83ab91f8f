// Package work records billable services performed for customers.
package work

import (
	"context"
	"fmt"
	"strings"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/httpx"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var columns = scope.Columns{Branch: "branch_id", Customer: "customer_id"}

type Store struct {
	db    *gorm.DB
	audit *audit.Writer
}

func NewStore(db *gorm.DB, aw *audit.Writer) *Store {
	return &Store{db: db, audit: aw}
}

type Filter struct {
	BranchID   *uint
	CustomerID *uint
	Status     models.WorkStatus
	Range      httpx.Range
}

func (s *Store) List(ctx context.Context, sc scope.Scope, f Filter) ([]models.WorkEntry, error) {
	branchID, err := sc.Branch(f.BranchID)
	if err != nil {
		return nil, err
	}
	q := sc.Apply(s.db.WithContext(ctx).Model(&models.WorkEntry{}), columns).
		Preload("Customer").Preload("Branch").Preload("Employee")
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Range.From != nil {
		q = q.Where("created_at >= ?", *f.Range.From)
	}
	if f.Range.To != nil {
		q = q.Where("created_at < ?", *f.Range.To)
	}

	var out []models.WorkEntry
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, sc scope.Scope, id uint) (models.WorkEntry, error) {
	var w models.WorkEntry
	err := s.db.WithContext(ctx).Preload("Customer").Preload("Branch").Preload("Employee").First(&w, "id = ?", id).Error
	if err != nil {
		return w, apperr.FromDB(err, "work entry")
	}
	err = sc.Authorize(scope.Owner{TenantID: w.TenantID, BranchID: &w.BranchID, CustomerID: &w.CustomerID})
	return w, err
}

type Input struct {
	CustomerID  uint             `json:"customerId"`
	EmployeeID  *uint            `json:"employeeId"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Status      *string          `json:"status"`
	PaymentMode *string          `json:"paymentMode"`
}

func parseStatus(s *string, fallback models.WorkStatus) (models.WorkStatus, error) {
	if s == nil || *s == "" {
		return fallback, nil
	}
	st := models.WorkStatus(*s)
	if !st.Valid() {
		return "", apperr.Validation("status must be pending or completed")
	}
	return st, nil
}

func parseMode(s *string, fallback models.PaymentMode) (models.PaymentMode, error) {
	if s == nil || *s == "" {
		return fallback, nil
	}
	m := models.PaymentMode(*s)
	if !m.Valid() {
		return "", apperr.Validation("paymentMode must be one of cash, upi, test, pending")
	}
	return m, nil
}

func parseAmount(a *decimal.Decimal) (decimal.Decimal, error) {
	if a == nil {
		return decimal.Zero, nil
	}
	if a.IsNegative() {
		return decimal.Zero, apperr.Validation("amount cannot be negative")
	}
	return a.Round(2), nil
}

// performer resolves who did the work. Staff callers default to themselves;
// a named employee must be active and belong to the customer's branch, or be
// a super admin of the same tenant.
func performer(ctx context.Context, db *gorm.DB, sc scope.Scope, requested *uint, cust models.Customer) (*uint, error) {
	if requested == nil || *requested == 0 {
		if sc.ActorType() == models.UserTypeEmployee {
			id := sc.ActorID()
			return &id, nil
		}
		return nil, nil
	}
	var e models.Employee
	if err := db.WithContext(ctx).First(&e, "id = ?", *requested).Error; err != nil {
		return nil, apperr.FromDB(err, "employee")
	}
	if e.TenantID != cust.TenantID || !e.IsActive {
		return nil, apperr.Validation("employee is not available for this customer")
	}
	if e.Role.BranchScoped() && (e.BranchID == nil || *e.BranchID != cust.BranchID) {
		return nil, apperr.Validation("employee works at a different branch")
	}
	return &e.ID, nil
}

// Create records work for a customer. Tenant and branch are copied from the
// customer; the request cannot set them.
func (s *Store) Create(ctx context.Context, sc scope.Scope, in Input) (models.WorkEntry, error) {
	var w models.WorkEntry
	desc := ""
	if in.Description != nil {
		desc = strings.TrimSpace(*in.Description)
	}
	if in.CustomerID == 0 || desc == "" {
		return w, apperr.Validation("Customer and description are required")
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return w, err
	}
	status, err := parseStatus(in.Status, models.WorkStatusPending)
	if err != nil {
		return w, err
	}
	mode, err := parseMode(in.PaymentMode, models.PaymentModePending)
	if err != nil {
		return w, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cust, err := scope.LoadCustomer(ctx, tx, sc, in.CustomerID)
		if err != nil {
			return err
		}
		empID, err := performer(ctx, tx, sc, in.EmployeeID, cust)
		if err != nil {
			return err
		}
		w = models.WorkEntry{
			TenantID:    cust.TenantID,
			BranchID:    cust.BranchID,
			CustomerID:  cust.ID,
			EmployeeID:  empID,
			Description: desc,
			Amount:      amount,
			Status:      status,
			PaymentMode: mode,
		}
		if err := tx.Create(&w).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &w.BranchID,
			EntityType:  "work_entry",
			EntityID:    w.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("work entry for customer %d: %s", cust.ID, desc),
			After:       w,
		})
	})
	return w, err
}

func (s *Store) Update(ctx context.Context, sc scope.Scope, id uint, in Input) (models.WorkEntry, error) {
	w, err := s.Get(ctx, sc, id)
	if err != nil {
		return w, err
	}
	if in.CustomerID != 0 && in.CustomerID != w.CustomerID {
		return w, apperr.Validation("the customer of a work entry cannot be changed")
	}
	cust := models.Customer{ID: w.CustomerID, TenantID: w.TenantID, BranchID: w.BranchID}
	w.Customer, w.Branch, w.Employee = nil, nil, nil
	before := w

	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if desc == "" {
			return w, apperr.Validation("description cannot be empty")
		}
		w.Description = desc
	}
	if in.Amount != nil {
		if w.Amount, err = parseAmount(in.Amount); err != nil {
			return w, err
		}
	}
	if w.Status, err = parseStatus(in.Status, w.Status); err != nil {
		return w, err
	}
	if w.PaymentMode, err = parseMode(in.PaymentMode, w.PaymentMode); err != nil {
		return w, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.EmployeeID != nil {
			if w.EmployeeID, err = performer(ctx, tx, sc, in.EmployeeID, cust); err != nil {
				return err
			}
		}
		if err := tx.Save(&w).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &w.BranchID,
			EntityType:  "work_entry",
			EntityID:    w.ID,
			Action:      models.AuditActionUpdate,
			Description: "work entry updated",
			Before:      before,
			After:       w,
		})
	})
	return w, err
}

// Delete removes a work entry. Payments that referenced it keep their amount
// and lose the link.
func (s *Store) Delete(ctx context.Context, sc scope.Scope, id uint) error {
	w, err := s.Get(ctx, sc, id)
	if err != nil {
		return err
	}
	w.Customer, w.Branch, w.Employee = nil, nil, nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Payment{}).Where("work_entry_id = ?", w.ID).Update("work_entry_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.WorkEntry{}, w.ID).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &w.BranchID,
			EntityType:  "work_entry",
			EntityID:    w.ID,
			Action:      models.AuditActionDelete,
			Description: "work entry deleted",
			Before:      w,
		})
	})
}
