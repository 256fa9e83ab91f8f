package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Entry struct {
	BranchID    *uint
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Writer appends audit records. The actor and tenant always come from the
// scope, never from the entry.
type Writer struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewWriter(db *gorm.DB, log *logrus.Logger) *Writer {
	return &Writer{db: db, log: log}
}

// Write stores e using tx, so callers inside a transaction get the audit row
// committed or rolled back with their change. A nil tx uses the writer's pool.
func (w *Writer) Write(ctx context.Context, tx *gorm.DB, sc scope.Scope, e Entry) error {
	if w == nil {
		return nil
	}
	if tx == nil {
		tx = w.db
	}

	// "null" rather than "" so the columns stay valid JSON.
	beforeStr := "null"
	afterStr := "null"
	if e.Before != nil {
		if b, err := json.Marshal(e.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if e.After != nil {
		if b, err := json.Marshal(e.After); err == nil {
			afterStr = string(b)
		}
	}

	rec := models.AuditLog{
		TenantID:    sc.TenantID(),
		BranchID:    e.BranchID,
		ActorID:     sc.ActorID(),
		ActorType:   sc.ActorType(),
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}
	if rec.TenantID == "" {
		return fmt.Errorf("audit log without tenant for %s %d", e.EntityType, e.EntityID)
	}

	if err := tx.WithContext(ctx).Create(&rec).Error; err != nil {
		if w.log != nil {
			w.log.WithError(err).WithFields(logrus.Fields{
				"entity_type": e.EntityType,
				"entity_id":   e.EntityID,
				"action":      e.Action,
			}).Error("audit log write failed")
		}
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

type Filter struct {
	BranchID   *uint
	ActorID    *uint
	EntityType string
	EntityID   *uint
	Limit      int
}

const (
	defaultLimit = 100
	maxLimit     = 500
)

// List returns the newest records visible to sc. Branch-scoped callers only
// see records tagged with their branch.
func (w *Writer) List(ctx context.Context, sc scope.Scope, f Filter) ([]models.AuditLog, error) {
	branchID, err := sc.Branch(f.BranchID)
	if err != nil {
		return nil, err
	}

	q := sc.Apply(w.db.WithContext(ctx).Model(&models.AuditLog{}), scope.Columns{Branch: "branch_id"})
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	if f.ActorID != nil {
		q = q.Where("actor_id = ?", *f.ActorID)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
