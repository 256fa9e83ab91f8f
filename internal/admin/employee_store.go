package admin

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

var employeeColumns = scope.Columns{Branch: "branch_id"}

type EmployeeStore struct {
	db    *gorm.DB
	audit *audit.Writer
}

func NewEmployeeStore(db *gorm.DB, aw *audit.Writer) *EmployeeStore {
	return &EmployeeStore{db: db, audit: aw}
}

type EmployeeFilter struct {
	BranchID        *uint
	IncludeInactive bool
}

func (s *EmployeeStore) List(ctx context.Context, sc scope.Scope, f EmployeeFilter) ([]models.Employee, error) {
	branchID, err := sc.Branch(f.BranchID)
	if err != nil {
		return nil, err
	}
	q := sc.Apply(s.db.WithContext(ctx).Model(&models.Employee{}), employeeColumns).Preload("Branch")
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Employee
	if err := q.Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EmployeeStore) Get(ctx context.Context, sc scope.Scope, id uint) (models.Employee, error) {
	var e models.Employee
	if err := s.db.WithContext(ctx).Preload("Branch").First(&e, "id = ?", id).Error; err != nil {
		return e, apperr.FromDB(err, "employee")
	}
	if err := sc.Authorize(scope.Owner{TenantID: e.TenantID, BranchID: e.BranchID}); err != nil {
		return e, err
	}
	return e, nil
}

type EmployeeInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	BranchID *uint   `json:"branchId"`
	IsActive *bool   `json:"isActive"`
}

func parseStaffRole(s string) (models.Role, error) {
	r, err := models.ParseRole(strings.TrimSpace(s))
	if err != nil || !r.IsStaff() {
		return "", apperr.Validation("role must be one of superAdmin, branchAdmin, employee")
	}
	return r, nil
}

// placement resolves the branch an employee with role belongs to. Super
// admins have none; every other role needs an active branch inside sc.
func placement(ctx context.Context, db *gorm.DB, sc scope.Scope, role models.Role, requested *uint) (*uint, error) {
	if !role.BranchScoped() {
		if requested != nil && *requested != 0 {
			return nil, apperr.Validation("a superAdmin cannot be assigned to a branch")
		}
		return nil, nil
	}
	if requested == nil || *requested == 0 {
		return nil, apperr.Validation("branchId is required for role %s", role)
	}
	target, err := sc.TargetBranch(requested)
	if err != nil {
		return nil, err
	}
	b, err := scope.LoadBranch(ctx, db, sc, target)
	if err != nil {
		return nil, err
	}
	return &b.ID, nil
}

func (s *EmployeeStore) Create(ctx context.Context, sc scope.Scope, in EmployeeInput) (models.Employee, error) {
	var e models.Employee
	if in.Name == nil || in.Phone == nil || in.Password == nil || in.Role == nil ||
		strings.TrimSpace(*in.Name) == "" || strings.TrimSpace(*in.Phone) == "" {
		return e, apperr.Validation("name, phone, password and role are required")
	}
	role, err := parseStaffRole(*in.Role)
	if err != nil {
		return e, err
	}
	hash, err := auth.HashPassword(*in.Password)
	if err != nil {
		return e, err
	}

	e = models.Employee{
		TenantID:     sc.TenantID(),
		Name:         strings.TrimSpace(*in.Name),
		Phone:        strings.TrimSpace(*in.Phone),
		Email:        httpx.Trim(in.Email),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		branchID, err := placement(ctx, tx, sc, role, in.BranchID)
		if err != nil {
			return err
		}
		e.BranchID = branchID

		if err := auth.EnsureContactAvailable(ctx, tx, &models.Employee{}, e.Phone, e.Email, 0); err != nil {
			return err
		}
		if err := tx.Create(&e).Error; err != nil {
			return apperr.FromDB(err, "employee")
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    e.BranchID,
			EntityType:  "employee",
			EntityID:    e.ID,
			Action:      models.AuditActionCreate,
			Description: string(role) + " " + e.Name + " created",
			After:       e,
		})
	})
	return e, err
}

func (s *EmployeeStore) Update(ctx context.Context, sc scope.Scope, id uint, in EmployeeInput) (models.Employee, error) {
	e, err := s.Get(ctx, sc, id)
	if err != nil {
		return e, err
	}
	e.Branch = nil
	before := e

	role := e.Role
	if in.Role != nil {
		if role, err = parseStaffRole(*in.Role); err != nil {
			return e, err
		}
	}
	self := id == sc.ActorID() && sc.ActorType() == models.UserTypeEmployee
	if self && (role != e.Role || (in.IsActive != nil && !*in.IsActive)) {
		return e, apperr.Validation("you cannot change the role of or deactivate your own account")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return e, apperr.Validation("name cannot be empty")
		}
		e.Name = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			return e, apperr.Validation("phone cannot be empty")
		}
		e.Phone = phone
	}
	if in.Email != nil {
		e.Email = httpx.Trim(in.Email)
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return e, err
		}
		e.PasswordHash = hash
	}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if role != e.Role || in.BranchID != nil {
			requested := in.BranchID
			if requested == nil && role.BranchScoped() {
				requested = e.BranchID
			}
			branchID, err := placement(ctx, tx, sc, role, requested)
			if err != nil {
				return err
			}
			e.Role, e.BranchID = role, branchID
		}

		if err := auth.EnsureContactAvailable(ctx, tx, &models.Employee{}, e.Phone, e.Email, e.ID); err != nil {
			return err
		}
		if err := tx.Save(&e).Error; err != nil {
			return apperr.FromDB(err, "employee")
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    e.BranchID,
			EntityType:  "employee",
			EntityID:    e.ID,
			Action:      models.AuditActionUpdate,
			Description: "employee " + e.Name + " updated",
			Before:      before,
			After:       e,
		})
	})
	return e, err
}

// Delete deactivates an employee. Issued tokens stay valid until they expire.
func (s *EmployeeStore) Delete(ctx context.Context, sc scope.Scope, id uint) error {
	e, err := s.Get(ctx, sc, id)
	if err != nil {
		return err
	}
	if id == sc.ActorID() && sc.ActorType() == models.UserTypeEmployee {
		return apperr.Validation("you cannot deactivate your own account")
	}
	e.Branch = nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Employee{}).Where("id = ?", e.ID).Update("is_active", false).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    e.BranchID,
			EntityType:  "employee",
			EntityID:    e.ID,
			Action:      models.AuditActionDelete,
			Description: "employee " + e.Name + " deactivated",
			Before:      e,
		})
	})
}
