package work

import (
	"seva-backend/internal/apperr"
	"seva-backend/internal/httpx"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

// GET /api/work-entries?branchId=&customerId=&status=&date=&startDate=&endDate=
func ListHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var f Filter
		if f.BranchID, err = httpx.QueryUint(c, "branchId"); err != nil {
			return err
		}
		if f.CustomerID, err = httpx.QueryUint(c, "customerId"); err != nil {
			return err
		}
		if f.Range, err = httpx.QueryRange(c); err != nil {
			return err
		}
		if st := c.Query("status"); st != "" {
			f.Status = models.WorkStatus(st)
			if !f.Status.Valid() {
				return apperr.Validation("status must be pending or completed")
			}
		}

		entries, err := s.List(c.UserContext(), sc, f)
		if err != nil {
			return err
		}
		return c.JSON(entries)
	}
}

func GetHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		w, err := s.Get(c.UserContext(), sc, id)
		if err != nil {
			return err
		}
		return c.JSON(w)
	}
}

func CreateHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var body Input
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		w, err := s.Create(c.UserContext(), sc, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(w)
	}
}

func UpdateHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body Input
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		w, err := s.Update(c.UserContext(), sc, id, body)
		if err != nil {
			return err
		}
		return c.JSON(w)
	}
}

func DeleteHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := s.Delete(c.UserContext(), sc, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "Work entry deleted"})
	}
}
