// Package customer manages customer identities inside a tenant's branches.
package customer

import (
	"context"
	"strings"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/auth"
	"seva-backend/internal/httpx"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"gorm.io/gorm"
)

var columns = scope.Columns{Branch: "branch_id", Customer: "id"}

type Store struct {
	db    *gorm.DB
	audit *audit.Writer
}

func NewStore(db *gorm.DB, aw *audit.Writer) *Store {
	return &Store{db: db, audit: aw}
}

type Filter struct {
	BranchID        *uint
	Search          string
	IncludeInactive bool
}

func (s *Store) List(ctx context.Context, sc scope.Scope, f Filter) ([]models.Customer, error) {
	branchID, err := sc.Branch(f.BranchID)
	if err != nil {
		return nil, err
	}
	q := sc.Apply(s.db.WithContext(ctx).Model(&models.Customer{}), columns).Preload("Branch")
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?)", like, like, like)
	}

	var out []models.Customer
	if err := q.Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, sc scope.Scope, id uint) (models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).Preload("Branch").First(&c, "id = ?", id).Error; err != nil {
		return c, apperr.FromDB(err, "customer")
	}
	err := sc.Authorize(scope.Owner{TenantID: c.TenantID, BranchID: &c.BranchID, CustomerID: &c.ID})
	return c, err
}

type Input struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	BranchID *uint   `json:"branchId"`
	IsActive *bool   `json:"isActive"`
}

// Create registers a customer. The tenant always comes from the branch,
// which must lie inside sc.
func (s *Store) Create(ctx context.Context, sc scope.Scope, in Input) (models.Customer, error) {
	var c models.Customer
	if in.Name == nil || in.Phone == nil || in.Password == nil ||
		strings.TrimSpace(*in.Name) == "" || strings.TrimSpace(*in.Phone) == "" {
		return c, apperr.Validation("name, phone and password are required")
	}
	target, err := sc.TargetBranch(in.BranchID)
	if err != nil {
		return c, err
	}
	hash, err := auth.HashPassword(*in.Password)
	if err != nil {
		return c, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		branch, err := scope.LoadBranch(ctx, tx, sc, target)
		if err != nil {
			return err
		}
		c = models.Customer{
			TenantID:     branch.TenantID,
			BranchID:     branch.ID,
			Name:         strings.TrimSpace(*in.Name),
			Phone:        strings.TrimSpace(*in.Phone),
			Email:        httpx.Trim(in.Email),
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := auth.EnsureContactAvailable(ctx, tx, &models.Customer{}, c.Phone, c.Email, 0); err != nil {
			return err
		}
		if err := tx.Create(&c).Error; err != nil {
			return apperr.FromDB(err, "customer")
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &c.BranchID,
			EntityType:  "customer",
			EntityID:    c.ID,
			Action:      models.AuditActionCreate,
			Description: "customer " + c.Name + " created",
			After:       c,
		})
	})
	return c, err
}

func (s *Store) Update(ctx context.Context, sc scope.Scope, id uint, in Input) (models.Customer, error) {
	c, err := s.Get(ctx, sc, id)
	if err != nil {
		return c, err
	}
	c.Branch = nil
	before := c

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return c, apperr.Validation("name cannot be empty")
		}
		c.Name = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			return c, apperr.Validation("phone cannot be empty")
		}
		c.Phone = phone
	}
	if in.Email != nil {
		c.Email = httpx.Trim(in.Email)
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return c, err
		}
		c.PasswordHash = hash
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.BranchID != nil && *in.BranchID != c.BranchID {
			target, err := sc.TargetBranch(in.BranchID)
			if err != nil {
				return err
			}
			branch, err := scope.LoadBranch(ctx, tx, sc, target)
			if err != nil {
				return err
			}
			c.BranchID = branch.ID
		}
		if err := auth.EnsureContactAvailable(ctx, tx, &models.Customer{}, c.Phone, c.Email, c.ID); err != nil {
			return err
		}
		if err := tx.Save(&c).Error; err != nil {
			return apperr.FromDB(err, "customer")
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &c.BranchID,
			EntityType:  "customer",
			EntityID:    c.ID,
			Action:      models.AuditActionUpdate,
			Description: "customer " + c.Name + " updated",
			Before:      before,
			After:       c,
		})
	})
	return c, err
}

// Delete deactivates a customer. Work entries, documents and payments stay.
func (s *Store) Delete(ctx context.Context, sc scope.Scope, id uint) error {
	c, err := s.Get(ctx, sc, id)
	if err != nil {
		return err
	}
	c.Branch = nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Customer{}).Where("id = ?", c.ID).Update("is_active", false).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &c.BranchID,
			EntityType:  "customer",
			EntityID:    c.ID,
			Action:      models.AuditActionDelete,
			Description: "customer " + c.Name + " deactivated",
			Before:      c,
		})
	})
}
