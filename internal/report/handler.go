package report

import (
	"fmt"
	"time"

	"seva-backend/internal/httpx"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

func parseQuery(c *fiber.Ctx) (Kind, Query, error) {
	var q Query
	kind, err := ParseKind(c.Query("type"))
	if err != nil {
		return kind, q, err
	}
	if q.BranchID, err = httpx.QueryUint(c, "branchId"); err != nil {
		return kind, q, err
	}
	if q.Range, err = httpx.QueryRange(c); err != nil {
		return kind, q, err
	}
	return kind, q, nil
}

// GET /api/reports?type=daily|branch|summary&branchId=1&startDate=2025-01-01&endDate=2025-01-31
func Handler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		kind, q, err := parseQuery(c)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		switch kind {
		case KindBranch:
			rows, err := s.Branches(ctx, sc, q)
			if err != nil {
				return err
			}
			return c.JSON(rows)
		case KindSummary:
			sum, err := s.Summary(ctx, sc, q)
			if err != nil {
				return err
			}
			return c.JSON(sum)
		default:
			rows, err := s.Daily(ctx, sc, q)
			if err != nil {
				return err
			}
			return c.JSON(rows)
		}
	}
}

// GET /api/reports/export?type=daily|branch|summary
func ExportHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		kind, q, err := parseQuery(c)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		var data []byte
		switch kind {
		case KindBranch:
			rows, err := s.Branches(ctx, sc, q)
			if err != nil {
				return err
			}
			data, err = BranchXLSX(rows)
			if err != nil {
				return err
			}
		case KindSummary:
			sum, err := s.Summary(ctx, sc, q)
			if err != nil {
				return err
			}
			data, err = SummaryXLSX(sum)
			if err != nil {
				return err
			}
		default:
			rows, err := s.Daily(ctx, sc, q)
			if err != nil {
				return err
			}
			data, err = DailyXLSX(rows)
			if err != nil {
				return err
			}
		}

		name := fmt.Sprintf("report_%s_%s.xlsx", kind, time.Now().UTC().Format("20060102"))
		c.Set(fiber.HeaderContentType, XLSXContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		return c.Send(data)
	}
}
