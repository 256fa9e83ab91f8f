package customer

import (
	"seva-backend/internal/httpx"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

// GET /api/customers?branchId=1&search=ravi
func ListHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		f := Filter{Search: c.Query("search"), IncludeInactive: c.QueryBool("includeInactive")}
		if f.BranchID, err = httpx.QueryUint(c, "branchId"); err != nil {
			return err
		}
		customers, err := s.List(c.UserContext(), sc, f)
		if err != nil {
			return err
		}
		return c.JSON(customers)
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
		cust, err := s.Get(c.UserContext(), sc, id)
		if err != nil {
			return err
		}
		return c.JSON(cust)
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
		cust, err := s.Create(c.UserContext(), sc, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(cust)
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
		cust, err := s.Update(c.UserContext(), sc, id, body)
		if err != nil {
			return err
		}
		return c.JSON(cust)
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
		return c.JSON(fiber.Map{"message": "Customer deactivated"})
	}
}
