// Package httpx holds the request parsing helpers shared by the handlers.
package httpx

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// ParseBody decodes the request body into v.
func ParseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// ParamID reads a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// QueryUint reads an optional positive integer query parameter.
func QueryUint(c *fiber.Ctx, key string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	v := uint(n)
	return &v, nil
}

// QueryDate reads an optional YYYY-MM-DD query parameter in UTC.
func QueryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key+", expected YYYY-MM-DD")
	}
	return &t, nil
}

// Range is a half-open interval [From, To). Either end may be open.
type Range struct {
	From *time.Time
	To   *time.Time
}

// QueryRange reads date, or startDate/endDate. Dates are whole days, so the
// upper bound is the start of the day after endDate.
func QueryRange(c *fiber.Ctx) (Range, error) {
	var r Range

	day, err := QueryDate(c, "date")
	if err != nil {
		return r, err
	}
	if day != nil {
		next := day.AddDate(0, 0, 1)
		return Range{From: day, To: &next}, nil
	}

	if r.From, err = QueryDate(c, "startDate"); err != nil {
		return r, err
	}
	end, err := QueryDate(c, "endDate")
	if err != nil {
		return r, err
	}
	if end != nil {
		next := end.AddDate(0, 0, 1)
		r.To = &next
	}
	if r.From != nil && r.To != nil && !r.From.Before(*r.To) {
		return r, fiber.NewError(fiber.StatusBadRequest, "startDate must not be after endDate")
	}
	return r, nil
}

// Trim returns nil for blank optional strings.
func Trim(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
