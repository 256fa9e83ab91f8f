package admin

import (
	"seva-backend/internal/httpx"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

// GET /api/branches?includeInactive=true
func ListBranchesHandler(s *BranchStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		branches, err := s.List(c.UserContext(), sc, c.QueryBool("includeInactive"))
		if err != nil {
			return err
		}
		return c.JSON(branches)
	}
}

func GetBranchHandler(s *BranchStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		b, err := s.Get(c.UserContext(), sc, id)
		if err != nil {
			return err
		}
		return c.JSON(b)
	}
}

func CreateBranchHandler(s *BranchStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var body BranchInput
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		b, err := s.Create(c.UserContext(), sc, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

func UpdateBranchHandler(s *BranchStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body BranchInput
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		b, err := s.Update(c.UserContext(), sc, id, body)
		if err != nil {
			return err
		}
		return c.JSON(b)
	}
}

func DeleteBranchHandler(s *BranchStore) fiber.Handler {
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
		return c.JSON(fiber.Map{"message": "Branch deactivated"})
	}
}
