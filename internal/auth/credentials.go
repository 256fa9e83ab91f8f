package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"
	"seva-backend/internal/session"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidCredentials covers every login failure: unknown phone, wrong
// password, inactive identity and inactive business.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is an authenticated employee or customer.
type Identity struct {
	ID       uint
	Name     string
	Role     models.Role
	UserType models.UserType
	BranchID *uint
	TenantID string
}

func (id Identity) Session() session.Session {
	return session.Session{
		UserID:   id.ID,
		Role:     id.Role,
		UserType: id.UserType,
		BranchID: id.BranchID,
		TenantID: id.TenantID,
	}
}

type CredentialStore struct {
	db    *gorm.DB
	audit *audit.Writer
}

func NewCredentialStore(db *gorm.DB, aw *audit.Writer) *CredentialStore {
	return &CredentialStore{db: db, audit: aw}
}

func (s *CredentialStore) Authenticate(ctx context.Context, userType models.UserType, phone, secret string) (Identity, error) {
	id, hash, err := s.lookup(ctx, userType, strings.TrimSpace(phone))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		burnCompare(secret)
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	if !VerifyPassword(secret, hash) {
		return Identity{}, ErrInvalidCredentials
	}

	var biz models.Business
	err = s.db.WithContext(ctx).Select("id", "is_active").First(&biz, "id = ?", id.TenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	if !biz.IsActive {
		return Identity{}, ErrInvalidCredentials
	}

	if err := id.Session().Validate(); err != nil {
		return Identity{}, fmt.Errorf("%s %d has an inconsistent scope: %w", userType, id.ID, err)
	}
	return id, nil
}

// lookup finds an active identity by phone. Stored roles are normalised;
// a staff record carrying a non-staff role yields an invalid Identity.
func (s *CredentialStore) lookup(ctx context.Context, userType models.UserType, phone string) (Identity, string, error) {
	db := s.db.WithContext(ctx)

	switch userType {
	case models.UserTypeEmployee:
		var e models.Employee
		if err := db.Where("phone = ? AND is_active = ?", phone, true).First(&e).Error; err != nil {
			return Identity{}, "", err
		}
		role, err := models.ParseRole(string(e.Role))
		if err != nil || !role.IsStaff() {
			role = ""
		}
		return Identity{
			ID:       e.ID,
			Name:     e.Name,
			Role:     role,
			UserType: models.UserTypeEmployee,
			BranchID: e.BranchID,
			TenantID: e.TenantID,
		}, e.PasswordHash, nil

	case models.UserTypeCustomer:
		var c models.Customer
		if err := db.Where("phone = ? AND is_active = ?", phone, true).First(&c).Error; err != nil {
			return Identity{}, "", err
		}
		branchID := c.BranchID
		return Identity{
			ID:       c.ID,
			Name:     c.Name,
			Role:     models.RoleCustomer,
			UserType: models.UserTypeCustomer,
			BranchID: &branchID,
			TenantID: c.TenantID,
		}, c.PasswordHash, nil
	}
	return Identity{}, "", gorm.ErrRecordNotFound
}

type Profile struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	Email      *string         `json:"email"`
	Role       models.Role     `json:"role"`
	UserType   models.UserType `json:"userType"`
	BranchID   *uint           `json:"branchId"`
	BranchName string          `json:"branchName,omitempty"`
	TenantID   string          `json:"tenantId"`
}

// Profile re-reads the session's identity. Identities that were removed or
// deactivated since the token was issued are reported as not found.
func (s *CredentialStore) Profile(ctx context.Context, sess session.Session) (Profile, error) {
	db := s.db.WithContext(ctx)
	p := Profile{Role: sess.Role, UserType: sess.UserType}

	switch sess.UserType {
	case models.UserTypeEmployee:
		var e models.Employee
		err := db.Where("id = ? AND tenant_id = ? AND is_active = ?", sess.UserID, sess.TenantID, true).First(&e).Error
		if err != nil {
			return p, apperr.FromDB(err, "user")
		}
		p.ID, p.Name, p.Phone, p.Email, p.BranchID, p.TenantID = e.ID, e.Name, e.Phone, e.Email, e.BranchID, e.TenantID
	case models.UserTypeCustomer:
		var c models.Customer
		err := db.Where("id = ? AND tenant_id = ? AND is_active = ?", sess.UserID, sess.TenantID, true).First(&c).Error
		if err != nil {
			return p, apperr.FromDB(err, "user")
		}
		branchID := c.BranchID
		p.ID, p.Name, p.Phone, p.Email, p.BranchID, p.TenantID = c.ID, c.Name, c.Phone, c.Email, &branchID, c.TenantID
	default:
		return p, apperr.NotFound("user")
	}

	if p.BranchID != nil {
		var b models.Branch
		if err := db.Select("name").First(&b, "id = ?", *p.BranchID).Error; err == nil {
			p.BranchName = b.Name
		}
	}
	return p, nil
}

// EnsureContactAvailable fails with a conflict when phone or email is already
// used by another row of model's table. excludeID skips the row being updated.
func EnsureContactAvailable(ctx context.Context, db *gorm.DB, model any, phone string, email *string, excludeID uint) error {
	taken := func(col, val string) (bool, error) {
		var n int64
		q := db.WithContext(ctx).Model(model).Where(col+" = ?", val)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	}

	if ok, err := taken("phone", phone); err != nil {
		return err
	} else if ok {
		return apperr.Conflict("Phone number already registered")
	}
	if email != nil {
		if ok, err := taken("email", *email); err != nil {
			return err
		} else if ok {
			return apperr.Conflict("Email already registered")
		}
	}
	return nil
}

type ProvisionInput struct {
	Name         string
	Phone        string
	Email        *string
	Password     string
	TenantID     string
	BusinessName string
}

// ProvisionSuperAdmin creates a super admin, and the business it owns when
// no tenant is given.
func (s *CredentialStore) ProvisionSuperAdmin(ctx context.Context, in ProvisionInput) (models.Employee, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.TenantID = strings.TrimSpace(in.TenantID)
	in.BusinessName = strings.TrimSpace(in.BusinessName)

	var emp models.Employee
	if in.Name == "" || in.Phone == "" {
		return emp, apperr.Validation("name, phone and password are required")
	}
	if in.TenantID == "" && in.BusinessName == "" {
		return emp, apperr.Validation("businessName is required when tenantId is omitted")
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return emp, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenantID := in.TenantID
		if tenantID == "" {
			biz := models.Business{ID: uuid.NewString(), Name: in.BusinessName, IsActive: true}
			if err := tx.Create(&biz).Error; err != nil {
				return apperr.FromDB(err, "business")
			}
			tenantID = biz.ID
		} else {
			var biz models.Business
			if err := tx.First(&biz, "id = ?", tenantID).Error; err != nil {
				return apperr.FromDB(err, "business")
			}
			if !biz.IsActive {
				return apperr.Validation("business is inactive")
			}
		}

		if err := EnsureContactAvailable(ctx, tx, &models.Employee{}, in.Phone, in.Email, 0); err != nil {
			return err
		}

		emp = models.Employee{
			TenantID:     tenantID,
			Name:         in.Name,
			Phone:        in.Phone,
			Email:        in.Email,
			PasswordHash: hash,
			Role:         models.RoleSuperAdmin,
			IsActive:     true,
		}
		if err := tx.Create(&emp).Error; err != nil {
			return apperr.FromDB(err, "employee")
		}

		sc, err := scope.New(Identity{ID: emp.ID, Role: emp.Role, UserType: models.UserTypeEmployee, TenantID: tenantID}.Session())
		if err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			EntityType:  "employee",
			EntityID:    emp.ID,
			Action:      models.AuditActionProvision,
			Description: "super admin provisioned with host key",
			After:       emp,
		})
	})
	return emp, err
}

// ListSuperAdmins lists super admins in sc's tenant, or in every tenant when
// sc is nil.
func (s *CredentialStore) ListSuperAdmins(ctx context.Context, sc *scope.Scope) ([]models.Employee, error) {
	q := s.db.WithContext(ctx).Model(&models.Employee{})
	if sc != nil {
		q = sc.Apply(q, scope.Columns{Branch: "branch_id"})
	}
	var out []models.Employee
	if err := q.Where("role IN ?", models.RoleSuperAdmin.Spellings()).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
