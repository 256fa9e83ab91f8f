package auth

import (
	"fmt"
	"slices"
	"strings"

	"seva-backend/internal/apperr"
	"seva-backend/internal/metrics"
	"seva-backend/internal/models"
	"seva-backend/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Allow-lists. Roles do not imply each other; every route names its own set.
var (
	SuperAdminOnly = []models.Role{models.RoleSuperAdmin}
	AdminRoles     = []models.Role{models.RoleSuperAdmin, models.RoleBranchAdmin}
	StaffRoles     = []models.Role{models.RoleSuperAdmin, models.RoleBranchAdmin, models.RoleEmployee}
	CustomerRoles  = []models.Role{models.RoleCustomer}
	AnyRole        = Roles(StaffRoles, CustomerRoles)
)

// Roles unions allow-lists.
func Roles(sets ...[]models.Role) []models.Role {
	var out []models.Role
	for _, set := range sets {
		for _, r := range set {
			if !slices.Contains(out, r) {
				out = append(out, r)
			}
		}
	}
	return out
}

// Gate authenticates requests and checks the caller's role.
type Gate struct {
	verifier Verifier
	metrics  *metrics.Metrics
}

func NewGate(v Verifier, m *metrics.Metrics) *Gate {
	return &Gate{verifier: v, metrics: m}
}

// TokenFromRequest prefers the session cookie and falls back to a bearer
// header.
func TokenFromRequest(c *fiber.Ctx) string {
	if tok := c.Cookies(CookieName); tok != "" {
		return tok
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Authenticate verifies the request token without a role check.
func (g *Gate) Authenticate(c *fiber.Ctx) (session.Session, error) {
	raw := TokenFromRequest(c)
	if raw == "" {
		g.metrics.Rejected("missing_token")
		return session.Session{}, apperr.ErrUnauthenticated
	}
	s, err := g.verifier.Verify(raw)
	if err != nil {
		g.metrics.Rejected("invalid_token")
		return session.Session{}, fmt.Errorf("%w: %w", apperr.ErrUnauthenticated, err)
	}
	return s, nil
}

// Require admits requests whose session role is in roles. The session is
// stored on the request for the handlers downstream.
func (g *Gate) Require(roles ...models.Role) fiber.Handler {
	if len(roles) == 0 {
		panic("auth: Require needs at least one role")
	}
	allowed := slices.Clone(roles)

	return func(c *fiber.Ctx) error {
		s, err := g.Authenticate(c)
		if err != nil {
			return err
		}
		if !slices.Contains(allowed, s.Role) {
			g.metrics.Rejected("forbidden_role")
			return fmt.Errorf("role %s: %w", s.Role, apperr.ErrForbidden)
		}
		session.Set(c, s)
		return c.Next()
	}
}
