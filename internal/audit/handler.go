package audit

import (
	"seva-backend/internal/httpx"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"createdAt"`
	BranchID    *uint              `json:"branchId"`
	ActorID     uint               `json:"actorId"`
	ActorType   models.UserType    `json:"actorType"`
	EntityType  string             `json:"entityType"`
	EntityID    uint               `json:"entityId"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"beforeData"`
	AfterData   string             `json:"afterData"`
}

// GET /api/audit-logs?entityType=customer&entityId=1&branchId=1&actorId=2&limit=50
func ListAuditLogsHandler(w *Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sc, err := scope.From(c)
		if err != nil {
			return err
		}

		f := Filter{EntityType: c.Query("entityType")}
		if f.BranchID, err = httpx.QueryUint(c, "branchId"); err != nil {
			return err
		}
		if f.ActorID, err = httpx.QueryUint(c, "actorId"); err != nil {
			return err
		}
		if f.EntityID, err = httpx.QueryUint(c, "entityId"); err != nil {
			return err
		}
		f.Limit = c.QueryInt("limit", 0)

		logs, err := w.List(c.UserContext(), sc, f)
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format(httpx.TimestampLayout),
				BranchID:    l.BranchID,
				ActorID:     l.ActorID,
				ActorType:   l.ActorType,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				BeforeData:  l.BeforeData,
				AfterData:   l.AfterData,
			})
		}
		return c.JSON(resp)
	}
}
