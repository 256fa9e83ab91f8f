package admin

import (
	"context"
	"strings"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/httpx"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BusinessStore struct {
	db    *gorm.DB
	audit *audit.Writer
}

func NewBusinessStore(db *gorm.DB, aw *audit.Writer) *BusinessStore {
	return &BusinessStore{db: db, audit: aw}
}

// Get returns the caller's own tenant. There is no way to address another.
func (s *BusinessStore) Get(ctx context.Context, sc scope.Scope) (models.Business, error) {
	var b models.Business
	if sc.TenantID() == "" {
		return b, apperr.ErrForbidden
	}
	err := s.db.WithContext(ctx).First(&b, "id = ?", sc.TenantID()).Error
	return b, apperr.FromDB(err, "business")
}

type UpdateBusinessRequest struct {
	Name    *string `json:"name"`
	Logo    *string `json:"logo"`
	Website *string `json:"website"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

func (s *BusinessStore) Update(ctx context.Context, sc scope.Scope, in UpdateBusinessRequest) (models.Business, error) {
	b, err := s.Get(ctx, sc)
	if err != nil {
		return b, err
	}
	before := b

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return b, apperr.Validation("name cannot be empty")
		}
		b.Name = name
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&b.Logo, in.Logo)
	set(&b.Website, in.Website)
	set(&b.Address, in.Address)
	set(&b.Phone, in.Phone)
	set(&b.Email, in.Email)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&b).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			EntityType:  "business",
			Action:      models.AuditActionUpdate,
			Description: "business info updated",
			Before:      before,
			After:       b,
		})
	})
	return b, err
}

// GET /api/business
func GetBusinessHandler(s *BusinessStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		b, err := s.Get(c.UserContext(), sc)
		if err != nil {
			return err
		}
		return c.JSON(b)
	}
}

// PUT /api/business
func UpdateBusinessHandler(s *BusinessStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var body UpdateBusinessRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		b, err := s.Update(c.UserContext(), sc, body)
		if err != nil {
			return err
		}
		return c.JSON(b)
	}
}
