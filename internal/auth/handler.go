package auth

import (
	"errors"
	"strings"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/httpx"
	"seva-backend/internal/metrics"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"
	"seva-backend/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Service bundles what the auth handlers need.
type Service struct {
	Credentials *CredentialStore
	Tokens      *TokenIssuer
	Gate        *Gate
	Cookies     CookieConfig
	Audit       *audit.Writer
	Metrics     *metrics.Metrics
	Log         *logrus.Logger
	// Host-level provisioning secret. Empty disables provisioning.
	SetupKey string
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

type UserResponse struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Role     models.Role     `json:"role"`
	BranchID *uint           `json:"branchId"`
	UserType models.UserType `json:"userType"`
	TenantID string          `json:"tenantId"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// POST /api/auth/login
func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		body.Phone = strings.TrimSpace(body.Phone)
		if body.Phone == "" || body.Password == "" || body.UserType == "" {
			return apperr.Validation("phone, password and userType are required")
		}
		userType, err := models.ParseUserType(body.UserType)
		if err != nil {
			return apperr.Validation("userType must be employee or customer")
		}

		id, err := svc.Credentials.Authenticate(c.UserContext(), userType, body.Phone, body.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			svc.Metrics.Login(string(userType), "invalid_credentials")
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}
		if err != nil {
			svc.Metrics.Login(string(userType), "error")
			return err
		}

		sess := id.Session()
		token, expires, err := svc.Tokens.Issue(sess)
		if err != nil {
			return err
		}
		svc.Cookies.Set(c, token, expires)
		svc.Metrics.Login(string(userType), "success")

		if sc, err := scope.New(sess); err == nil {
			_ = svc.Audit.Write(c.UserContext(), nil, sc, audit.Entry{
				BranchID:    id.BranchID,
				EntityType:  string(userType),
				EntityID:    id.ID,
				Action:      models.AuditActionLogin,
				Description: "login",
			})
		}

		return c.JSON(LoginResponse{
			Token: token,
			User: UserResponse{
				ID:       id.ID,
				Name:     id.Name,
				Role:     id.Role,
				BranchID: id.BranchID,
				UserType: id.UserType,
				TenantID: id.TenantID,
			},
		})
	}
}

// POST /api/auth/logout. Tokens stay valid until they expire; only the
// cookie is removed.
func LogoutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Cookies.Clear(c)
		return c.JSON(fiber.Map{"message": "Logged out"})
	}
}

// GET /api/auth/me
func MeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := session.From(c)
		if !ok {
			return apperr.ErrUnauthenticated
		}
		p, err := svc.Credentials.Profile(c.UserContext(), sess)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}
