package auth

import (
	"crypto/subtle"
	"fmt"

	"seva-backend/internal/apperr"
	"seva-backend/internal/httpx"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const SetupKeyHeader = "X-Setup-Key"

type ProvisionRequest struct {
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Email        *string `json:"email"`
	Password     string  `json:"password"`
	TenantID     string  `json:"tenantId"`
	BusinessName string  `json:"businessName"`
}

func setupKeyMatches(c *fiber.Ctx, key string) bool {
	got := c.Get(SetupKeyHeader)
	if key == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1
}

// POST /api/super-admins. Only the host setup key is accepted here; session
// cookies and bearer tokens are ignored.
func CreateSuperAdminHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if svc.SetupKey == "" {
			return fiber.ErrNotFound
		}
		if !setupKeyMatches(c, svc.SetupKey) {
			svc.Metrics.Rejected("bad_setup_key")
			if svc.Log != nil {
				svc.Log.WithField("ip", c.IP()).Warn("super admin provisioning rejected")
			}
			return apperr.ErrUnauthenticated
		}

		var body ProvisionRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		emp, err := svc.Credentials.ProvisionSuperAdmin(c.UserContext(), ProvisionInput{
			Name:         body.Name,
			Phone:        body.Phone,
			Email:        httpx.Trim(body.Email),
			Password:     body.Password,
			TenantID:     body.TenantID,
			BusinessName: body.BusinessName,
		})
		if err != nil {
			return err
		}

		if svc.Log != nil {
			svc.Log.WithFields(logrus.Fields{
				"employee_id": emp.ID,
				"tenant_id":   emp.TenantID,
			}).Info("super admin provisioned")
		}
		return c.Status(fiber.StatusCreated).JSON(emp)
	}
}

// GET /api/super-admins. The host key lists every tenant's super admins; a
// super admin session lists its own tenant's.
func ListSuperAdminsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sc *scope.Scope

		if !setupKeyMatches(c, svc.SetupKey) {
			sess, err := svc.Gate.Authenticate(c)
			if err != nil {
				return err
			}
			if sess.Role != models.RoleSuperAdmin {
				return fmt.Errorf("role %s: %w", sess.Role, apperr.ErrForbidden)
			}
			s, err := scope.New(sess)
			if err != nil {
				return err
			}
			sc = &s
		}

		admins, err := svc.Credentials.ListSuperAdmins(c.UserContext(), sc)
		if err != nil {
			return err
		}
		return c.JSON(admins)
	}
}
