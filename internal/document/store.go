// Package document stores files attached to customers.
package document

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var columns = scope.Columns{Branch: "branch_id", Customer: "customer_id"}

type Store struct {
	db      *gorm.DB
	storage Storage
	audit   *audit.Writer
	log     *logrus.Logger
}

func NewStore(db *gorm.DB, storage Storage, aw *audit.Writer, log *logrus.Logger) *Store {
	return &Store{db: db, storage: storage, audit: aw, log: log}
}

type Filter struct {
	BranchID   *uint
	CustomerID *uint
}

func (s *Store) List(ctx context.Context, sc scope.Scope, f Filter) ([]models.Document, error) {
	branchID, err := sc.Branch(f.BranchID)
	if err != nil {
		return nil, err
	}
	q := sc.Apply(s.db.WithContext(ctx).Model(&models.Document{}), columns).Preload("Customer").Preload("Uploader")
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	var out []models.Document
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, sc scope.Scope, id uint) (models.Document, error) {
	var d models.Document
	if err := s.db.WithContext(ctx).Preload("Customer").Preload("Uploader").First(&d, "id = ?", id).Error; err != nil {
		return d, apperr.FromDB(err, "document")
	}
	err := sc.Authorize(scope.Owner{TenantID: d.TenantID, BranchID: &d.BranchID, CustomerID: &d.CustomerID})
	return d, err
}

type Upload struct {
	CustomerID   uint
	OriginalName string
	ContentType  string
	Body         io.Reader
}

// blobName keeps a customer's files together and never reuses the client's
// file name on disk.
func blobName(customerID uint, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("%d/%s%s", customerID, uuid.NewString(), ext)
}

// Create stores the file and its metadata. Tenant and branch come from the
// customer. The blob is removed again when the row cannot be written.
func (s *Store) Create(ctx context.Context, sc scope.Scope, up Upload) (models.Document, error) {
	var d models.Document
	name := filepath.Base(strings.TrimSpace(up.OriginalName))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return d, apperr.Validation("file name is required")
	}
	if sc.ActorType() != models.UserTypeEmployee {
		return d, apperr.ErrForbidden
	}

	cust, err := scope.LoadCustomer(ctx, s.db, sc, up.CustomerID)
	if err != nil {
		return d, err
	}

	blob := blobName(cust.ID, name)
	size, err := s.storage.Put(ctx, blob, up.Body)
	if err != nil {
		return d, err
	}

	d = models.Document{
		TenantID:     cust.TenantID,
		BranchID:     cust.BranchID,
		CustomerID:   cust.ID,
		OriginalName: name,
		BlobName:     blob,
		ContentType:  up.ContentType,
		FileSize:     size,
		UploadedBy:   sc.ActorID(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&d).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &d.BranchID,
			EntityType:  "document",
			EntityID:    d.ID,
			Action:      models.AuditActionCreate,
			Description: "document " + name + " uploaded",
			After:       d,
		})
	})
	if err != nil {
		if derr := s.storage.Delete(ctx, blob); derr != nil && s.log != nil {
			s.log.WithError(derr).WithField("blob", blob).Warn("orphaned document blob")
		}
		return models.Document{}, err
	}
	return d, nil
}

// Open returns the document and a reader over its bytes. The caller closes
// the reader.
func (s *Store) Open(ctx context.Context, sc scope.Scope, id uint) (models.Document, io.ReadCloser, error) {
	d, err := s.Get(ctx, sc, id)
	if err != nil {
		return d, nil, err
	}
	r, err := s.storage.Open(ctx, d.BlobName)
	if err == ErrBlobNotFound {
		return d, nil, apperr.NotFound("document file")
	}
	if err != nil {
		return d, nil, err
	}
	return d, r, nil
}

// Delete removes the row, then the blob. A blob that cannot be removed is
// logged and left behind.
func (s *Store) Delete(ctx context.Context, sc scope.Scope, id uint) error {
	d, err := s.Get(ctx, sc, id)
	if err != nil {
		return err
	}
	if sc.ActorType() != models.UserTypeEmployee {
		return apperr.ErrForbidden
	}
	d.Customer, d.Uploader = nil, nil

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Document{}, d.ID).Error; err != nil {
			return err
		}
		return s.audit.Write(ctx, tx, sc, audit.Entry{
			BranchID:    &d.BranchID,
			EntityType:  "document",
			EntityID:    d.ID,
			Action:      models.AuditActionDelete,
			Description: "document " + d.OriginalName + " deleted",
			Before:      d,
		})
	})
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, d.BlobName); err != nil && s.log != nil {
		s.log.WithError(err).WithField("blob", d.BlobName).Warn("document blob not removed")
	}
	return nil
}
