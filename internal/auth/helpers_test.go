package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	tokens := NewTokenIssuer(testSecret, time.Hour)
	aw := audit.NewWriter(db, nil)
	return &Service{
		Credentials: NewCredentialStore(db, aw),
		Tokens:      tokens,
		Gate:        NewGate(tokens, nil),
		Cookies:     CookieConfig{MaxAge: 7 * 24 * time.Hour},
		Audit:       aw,
		SetupKey:    "host-setup-key",
	}, db
}

func newTestApp(svc *Service) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status, msg := apperr.Status(err)
			return c.Status(status).JSON(fiber.Map{"error": msg})
		},
	})
	app.Post("/auth/login", LoginHandler(svc))
	app.Post("/auth/logout", LogoutHandler(svc))
	app.Get("/auth/me", svc.Gate.Require(AnyRole...), MeHandler(svc))
	app.Get("/super-admins", ListSuperAdminsHandler(svc))
	app.Post("/super-admins", CreateSuperAdminHandler(svc))
	app.Post("/branches", svc.Gate.Require(SuperAdminOnly...), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

type header struct{ key, value string }

func do(t *testing.T, app *fiber.App, method, path string, body any, headers ...header) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		req.Header.Set(h.key, h.value)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func bearer(token string) header { return header{"Authorization", "Bearer " + token} }

func cookie(token string) header { return header{"Cookie", CookieName + "=" + token} }

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("decoding error body %q: %v", body, err)
	}
	return e.Error
}
