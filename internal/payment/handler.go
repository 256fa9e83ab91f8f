package payment

import (
	"errors"

	"seva-backend/internal/httpx"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// GET /api/payments?customerId=3&branchId=1&startDate=2025-01-01&endDate=2025-01-31
func ListHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var f Filter
		if f.CustomerID, err = httpx.QueryUint(c, "customerId"); err != nil {
			return err
		}
		if f.BranchID, err = httpx.QueryUint(c, "branchId"); err != nil {
			return err
		}
		if f.Range, err = httpx.QueryRange(c); err != nil {
			return err
		}
		payments, err := s.List(c.UserContext(), sc, f)
		if err != nil {
			return err
		}
		return c.JSON(payments)
	}
}

func RecordHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var body RecordInput
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		p, err := s.Record(c.UserContext(), sc, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

func CreateOrderHandler(s *Store, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var body OrderInput
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		order, err := s.CreateOrder(c.UserContext(), sc, body)
		if errors.Is(err, ErrGatewayUnavailable) {
			log.WithError(err).Error("creating gateway order")
			return fiber.NewError(fiber.StatusBadGateway, "Failed to create order")
		}
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

func VerifyHandler(s *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}
		var body VerifyInput
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		p, err := s.Verify(c.UserContext(), sc, body)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}
