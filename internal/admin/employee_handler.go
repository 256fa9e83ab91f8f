package admin

import (
	"seva-backend/internal/httpx"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

// GET /api/employees?branchId=1&includeInactive=true
func ListEmployeesHandler(s *EmployeeStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		f := EmployeeFilter{IncludeInactive: c.QueryBool("includeInactive")}
		if f.BranchID, err = httpx.QueryUint(c, "branchId"); err != nil {
			return err
		}
		employees, err := s.List(c.UserContext(), sc, f)
		if err != nil {
			return err
		}
		return c.JSON(employees)
	}
}

func GetEmployeeHandler(s *EmployeeStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		e, err := s.Get(c.UserContext(), sc, id)
		if err != nil {
			return err
		}
		return c.JSON(e)
	}
}

func CreateEmployeeHandler(s *EmployeeStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var body EmployeeInput
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		e, err := s.Create(c.UserContext(), sc, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	}
}

func UpdateEmployeeHandler(s *EmployeeStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body EmployeeInput
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		e, err := s.Update(c.UserContext(), sc, id, body)
		if err != nil {
			return err
		}
		return c.JSON(e)
	}
}

func DeleteEmployeeHandler(s *EmployeeStore) fiber.Handler {
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
		return c.JSON(fiber.Map{"message": "Employee deactivated"})
	}
}
