package httpx

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func run(t *testing.T, target string, h fiber.Handler) int {
	t.Helper()
	app := fiber.New()
	app.Get("/items/:id", h)
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestParamID(t *testing.T) {
	h := func(c *fiber.Ctx) error {
		if _, err := ParamID(c, "id"); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
	if got := run(t, "/items/12", h); got != fiber.StatusNoContent {
		t.Errorf("valid id status = %d", got)
	}
	for _, bad := range []string{"/items/0", "/items/abc", "/items/-3", "/items/1abc", "/items/12%20"} {
		if got := run(t, bad, h); got != fiber.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", bad, got)
		}
	}
}

func TestQueryUintRejectsTrailingGarbage(t *testing.T) {
	h := func(c *fiber.Ctx) error {
		v, err := QueryUint(c, "branchId")
		if err != nil {
			return err
		}
		if v == nil || *v != 7 {
			return fiber.ErrTeapot
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
	if got := run(t, "/items/1?branchId=7", h); got != fiber.StatusNoContent {
		t.Errorf("valid branchId status = %d", got)
	}
	for _, bad := range []string{"7x", "0", "-7", "7.5"} {
		if got := run(t, "/items/1?branchId="+bad, h); got != fiber.StatusBadRequest {
			t.Errorf("branchId=%s status = %d, want 400", bad, got)
		}
	}
}

func TestQueryRange(t *testing.T) {
	var got Range
	h := func(c *fiber.Ctx) error {
		r, err := QueryRange(c)
		if err != nil {
			return err
		}
		got = r
		return c.SendStatus(fiber.StatusNoContent)
	}

	if code := run(t, "/items/1?date=2024-03-10", h); code != fiber.StatusNoContent {
		t.Fatalf("status = %d", code)
	}
	wantFrom := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if got.From == nil || !got.From.Equal(wantFrom) || got.To == nil || !got.To.Equal(wantFrom.AddDate(0, 0, 1)) {
		t.Errorf("date range = %v..%v", got.From, got.To)
	}

	if code := run(t, "/items/1?startDate=2024-03-01&endDate=2024-03-31", h); code != fiber.StatusNoContent {
		t.Fatalf("status = %d", code)
	}
	if !got.To.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end bound = %v, want 2024-04-01", got.To)
	}

	if code := run(t, "/items/1?startDate=2024-03-05&endDate=2024-03-01", h); code != fiber.StatusBadRequest {
		t.Errorf("inverted range status = %d, want 400", code)
	}
	if code := run(t, "/items/1?date=10-03-2024", h); code != fiber.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", code)
	}
}
