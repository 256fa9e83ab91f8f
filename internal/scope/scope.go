// Package scope confines every data access to the caller's tenant and, for
// branch-scoped roles, to the caller's branch.
//
// A Scope can only be built from a validated session. Stores take one as a
// mandatory argument and apply it themselves, so a handler cannot forget the
// tenant filter. Single-resource lookups go through Authorize, which fails
// with apperr.ErrForbidden instead of pretending the row does not exist.
package scope

import (
	"context"
	"errors"
	"fmt"

	"seva-backend/internal/apperr"
	"seva-backend/internal/models"
	"seva-backend/internal/session"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Scope struct {
	tenantID   string
	branchID   *uint
	customerID *uint
	actorID    uint
	role       models.Role
}

// New derives a scope from a session. Invalid sessions yield an error and a
// zero Scope, which every method treats as "no access".
func New(s session.Session) (Scope, error) {
	if err := s.Validate(); err != nil {
		return Scope{}, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	sc := Scope{
		tenantID: s.TenantID,
		actorID:  s.UserID,
		role:     s.Role,
	}
	if s.BranchID != nil {
		b := *s.BranchID
		sc.branchID = &b
	}
	if s.Role == models.RoleCustomer {
		id := s.UserID
		sc.customerID = &id
	}
	return sc, nil
}

// From reads the session the access gate stored on the request.
func From(c *fiber.Ctx) (Scope, error) {
	s, ok := session.From(c)
	if !ok {
		return Scope{}, apperr.ErrUnauthenticated
	}
	return New(s)
}

func (s Scope) TenantID() string           { return s.tenantID }
func (s Scope) ActorID() uint              { return s.actorID }
func (s Scope) Role() models.Role          { return s.role }
func (s Scope) ActorType() models.UserType { return s.role.UserType() }
func (s Scope) IsCustomer() bool           { return s.customerID != nil }
func (s Scope) TenantWide() bool           { return s.tenantID != "" && !s.role.BranchScoped() }
func (s Scope) valid() bool                { return s.tenantID != "" && s.actorID != 0 }

// BranchID is nil for tenant-wide scopes.
func (s Scope) BranchID() *uint {
	if s.branchID == nil {
		return nil
	}
	b := *s.branchID
	return &b
}

// CustomerID is set only for customer sessions.
func (s Scope) CustomerID() *uint {
	if s.customerID == nil {
		return nil
	}
	c := *s.customerID
	return &c
}

// Columns names the ownership columns of a table.
type Columns struct {
	Tenant   string // defaults to tenant_id
	Branch   string
	Customer string // empty means customers may not read the table
	// Shared rows are readable by every customer of the branch.
	Shared bool
}

// Apply narrows db to the rows the scope may see. A zero scope, or a table
// the caller's role cannot be narrowed on, poisons the query with
// ErrForbidden.
func (s Scope) Apply(db *gorm.DB, cols Columns) *gorm.DB {
	if !s.valid() {
		return deny(db, "empty scope")
	}

	tenantCol := cols.Tenant
	if tenantCol == "" {
		tenantCol = "tenant_id"
	}
	db = db.Where(tenantCol+" = ?", s.tenantID)

	if s.role.BranchScoped() {
		if cols.Branch == "" || s.branchID == nil {
			return deny(db, "table has no branch column")
		}
		db = db.Where(cols.Branch+" = ?", *s.branchID)
	}

	if s.customerID != nil && !cols.Shared {
		if cols.Customer == "" {
			return deny(db, "table not visible to customers")
		}
		db = db.Where(cols.Customer+" = ?", *s.customerID)
	}
	return db
}

func deny(db *gorm.DB, reason string) *gorm.DB {
	tx := db.Where("1 = 0")
	_ = tx.AddError(fmt.Errorf("scope: %s: %w", reason, apperr.ErrForbidden))
	return tx
}

// Owner describes who a single record belongs to.
type Owner struct {
	TenantID   string
	BranchID   *uint
	CustomerID *uint
	Shared     bool
}

// Authorize fails with ErrForbidden when the record lies outside the scope.
func (s Scope) Authorize(o Owner) error {
	if !s.valid() {
		return fmt.Errorf("scope: empty: %w", apperr.ErrForbidden)
	}
	if o.TenantID != s.tenantID {
		return fmt.Errorf("scope: foreign tenant: %w", apperr.ErrForbidden)
	}
	if s.role.BranchScoped() {
		if s.branchID == nil || o.BranchID == nil || *o.BranchID != *s.branchID {
			return fmt.Errorf("scope: foreign branch: %w", apperr.ErrForbidden)
		}
	}
	if s.customerID != nil && !o.Shared {
		if o.CustomerID == nil || *o.CustomerID != *s.customerID {
			return fmt.Errorf("scope: foreign customer: %w", apperr.ErrForbidden)
		}
	}
	return nil
}

// Branch resolves a branch filter for list queries. Branch-scoped callers
// always get their own branch; asking for another one is forbidden.
func (s Scope) Branch(requested *uint) (*uint, error) {
	if s.role.BranchScoped() {
		if s.branchID == nil {
			return nil, fmt.Errorf("scope: no branch: %w", apperr.ErrForbidden)
		}
		if requested != nil && *requested != *s.branchID {
			return nil, fmt.Errorf("scope: foreign branch filter: %w", apperr.ErrForbidden)
		}
		return s.BranchID(), nil
	}
	return requested, nil
}

// TargetBranch resolves the branch a write lands in. Tenant-wide callers must
// name one.
func (s Scope) TargetBranch(requested *uint) (uint, error) {
	if s.role.BranchScoped() {
		b, err := s.Branch(requested)
		if err != nil {
			return 0, err
		}
		return *b, nil
	}
	if requested == nil || *requested == 0 {
		return 0, apperr.Validation("branchId is required")
	}
	return *requested, nil
}

// LoadBranch fetches an active branch and checks the scope may write to it.
func LoadBranch(ctx context.Context, db *gorm.DB, s Scope, id uint) (models.Branch, error) {
	var b models.Branch
	if err := db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return b, apperr.FromDB(err, "branch")
	}
	if err := s.Authorize(Owner{TenantID: b.TenantID, BranchID: &b.ID, Shared: true}); err != nil {
		return b, err
	}
	if !b.IsActive {
		return b, apperr.Validation("branch is inactive")
	}
	return b, nil
}

// LoadCustomer fetches an active customer inside the scope. Records created
// for a customer inherit its tenant and branch.
func LoadCustomer(ctx context.Context, db *gorm.DB, s Scope, id uint) (models.Customer, error) {
	var c models.Customer
	if id == 0 {
		return c, apperr.Validation("customerId is required")
	}
	err := db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return c, apperr.FromDB(err, "customer")
	}
	if err := s.Authorize(Owner{TenantID: c.TenantID, BranchID: &c.BranchID, CustomerID: &c.ID}); err != nil {
		return c, err
	}
	if !c.IsActive {
		return c, apperr.Validation("customer is inactive")
	}
	return c, nil
}

// IsForbidden reports whether err is a scope violation.
func IsForbidden(err error) bool {
	return errors.Is(err, apperr.ErrForbidden)
}
