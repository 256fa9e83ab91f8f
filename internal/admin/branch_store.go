package admin

import (
	"context"
	"strings"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"gorm.io/gorm"
)

var branchColumns = scope.Columns{Branch: "id", Shared: true}

type BranchStore struct {
	db    *gorm.DB
	audit *audit.Writer
}

func NewBranchStore(db *gorm.DB, aw *audit.Writer) *BranchStore {
	return &BranchStore{db: db, audit: aw}
}

// List returns the branches visible to sc. Branch-scoped callers, customers
// included, only ever see their own branch.
func (s *BranchStore) List(ctx context.Context, sc scope.Scope, includeInactive bool) ([]models.Branch, error) {
	q := sc.Apply(s.db.WithContext(ctx).Model(&models.Branch{}), branchColumns)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Branch
	if err := q.Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BranchStore) Get(ctx context.Context, sc scope.Scope, id uint) (models.Branch, error) {
	var b models.Branch
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return b, apperr.FromDB(err, "branch")
	}
	if err := sc.Authorize(scope.Owner{TenantID: b.TenantID, BranchID: &b.ID, Shared: true}); err != nil {
		return b, err
	}
	return b, nil
}

type BranchInput struct {
	Name     *string `json:"name"`
	Code     *string `json:"code"`
	City     *string `json:"city"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"isActive"`
}

func (in BranchInput) apply(b *models.Branch) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperr.Validation("Branch name cannot be empty")
		}
		b.Name = name
	}
	for _, f := range []struct {
		dst *string
		v   *string
	}{{&b.Code, in.Code}, {&b.City, in.City}, {&b.Address, in.Address}, {&b.Phone, in.Phone}} {
		if f.v != nil {
			*f.dst = strings.TrimSpace(*f.v)
		}
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	return nil
}

func (s *BranchStore) nameTaken(ctx context.Context, tx *gorm.DB, tenantID, name string, excludeID uint) error {
	var n int64
	q := tx.WithContext(ctx).Model(&models.Branch{}).Where("tenant_id = ? AND name = ?", tenantID, name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("Branch name already exists")
	}
	return nil
}

// Create adds a branch to the caller's tenant. Only tenant-wide callers may
// create branches.
func (s *BranchStore) Create(ctx context.Context, sc scope.Scope, in BranchInput) (models.Branch, error) {
	b := models.Branch{TenantID: sc.TenantID(), IsActive: true}
	if !sc.TenantWide() {
		return b, apperr.ErrForbidden
	}
	if in.Name == nil {
		return b, apperr.Validation("Branch name is required")
	}
	if err := in.apply(&b); err != nil {
		return b, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.nameTaken(ctx, tx, b.TenantID, b.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(&b).Error; err != nil {
			return apperr.FromDB(err, "branch")
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &b.ID,
			EntityType:  "branch",
			EntityID:    b.ID,
			Action:      models.AuditActionCreate,
			Description: "branch " + b.Name + " created",
			After:       b,
		})
	})
	return b, err
}

func (s *BranchStore) Update(ctx context.Context, sc scope.Scope, id uint, in BranchInput) (models.Branch, error) {
	b, err := s.Get(ctx, sc, id)
	if err != nil {
		return b, err
	}
	if !sc.TenantWide() {
		return b, apperr.ErrForbidden
	}
	before := b
	if err := in.apply(&b); err != nil {
		return b, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.nameTaken(ctx, tx, b.TenantID, b.Name, b.ID); err != nil {
			return err
		}
		if err := tx.Save(&b).Error; err != nil {
			return apperr.FromDB(err, "branch")
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &b.ID,
			EntityType:  "branch",
			EntityID:    b.ID,
			Action:      models.AuditActionUpdate,
			Description: "branch " + b.Name + " updated",
			Before:      before,
			After:       b,
		})
	})
	return b, err
}

// Delete deactivates a branch. Its staff and customers keep their rows.
func (s *BranchStore) Delete(ctx context.Context, sc scope.Scope, id uint) error {
	b, err := s.Get(ctx, sc, id)
	if err != nil {
		return err
	}
	if !sc.TenantWide() {
		return apperr.ErrForbidden
	}
	before := b

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&b).Update("is_active", false).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &b.ID,
			EntityType:  "branch",
			EntityID:    b.ID,
			Action:      models.AuditActionDelete,
			Description: "branch " + b.Name + " deactivated",
			Before:      before,
		})
	})
}
