// Package session holds the decoded identity attached to an authenticated
// request.
package session

import (
	"errors"
	"time"

	"seva-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const CtxSessionKey = "session"

// Session is derived from a verified token; nothing is stored server-side.
type Session struct {
	UserID    uint
	Role      models.Role
	UserType  models.UserType
	BranchID  *uint
	TenantID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Validate checks the claims are consistent with each other.
func (s Session) Validate() error {
	if s.UserID == 0 {
		return errors.New("missing user id")
	}
	if !s.Role.Valid() {
		return errors.New("unknown role")
	}
	if s.UserType != s.Role.UserType() {
		return errors.New("user type does not match role")
	}
	if s.TenantID == "" {
		return errors.New("missing tenant")
	}
	if s.Role.BranchScoped() && (s.BranchID == nil || *s.BranchID == 0) {
		return errors.New("branch scoped role without branch")
	}
	if !s.Role.BranchScoped() && s.BranchID != nil {
		return errors.New("tenant wide role with branch")
	}
	return nil
}

func Set(c *fiber.Ctx, s Session) {
	c.Locals(CtxSessionKey, s)
}

func From(c *fiber.Ctx) (Session, bool) {
	s, ok := c.Locals(CtxSessionKey).(Session)
	return s, ok
}
