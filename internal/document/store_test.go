package document

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"
	"seva-backend/internal/session"
	"seva-backend/internal/testutil"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	store   *Store
	root    string
	admin   models.Employee
	cust    models.Customer
	other   models.Customer
	branchA models.Branch
	branchB models.Branch
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.DB(t)
	testutil.Business(t, db, "t1")
	a := testutil.Branch(t, db, "t1", "A")
	b := testutil.Branch(t, db, "t1", "B")
	admin := testutil.Employee(t, db, "t1", nil, models.RoleSuperAdmin, "9100000001", "pw")
	cust := testutil.Customer(t, db, "t1", a.ID, "9200000001", "pw")
	other := testutil.Customer(t, db, "t1", b.ID, "9200000002", "pw")

	root := t.TempDir()
	disk, err := NewDiskStorage(root)
	if err != nil {
		t.Fatalf("NewDiskStorage() error = %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return fixture{
		db:      db,
		store:   NewStore(db, disk, audit.NewWriter(db, log), log),
		root:    root,
		admin:   admin,
		cust:    cust,
		other:   other,
		branchA: a,
		branchB: b,
	}
}

func mustScope(t *testing.T, s session.Session) scope.Scope {
	t.Helper()
	sc, err := scope.New(s)
	if err != nil {
		t.Fatalf("scope.New() error = %v", err)
	}
	return sc
}

func upload(t *testing.T, f fixture, sc scope.Scope, customerID uint, name, body string) models.Document {
	t.Helper()
	d, err := f.store.Create(context.Background(), sc, Upload{
		CustomerID:   customerID,
		OriginalName: name,
		ContentType:  "text/plain",
		Body:         strings.NewReader(body),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return d
}

func TestCreate_InheritsCustomerPlacement(t *testing.T) {
	f := setup(t)
	sc := mustScope(t, testutil.SuperAdminSession("t1", f.admin.ID))

	d := upload(t, f, sc, f.cust.ID, "../../etc/report.TXT", "hello")
	if d.TenantID != "t1" || d.BranchID != f.branchA.ID || d.CustomerID != f.cust.ID {
		t.Errorf("placement = (%s, %d, %d), want (t1, %d, %d)", d.TenantID, d.BranchID, d.CustomerID, f.branchA.ID, f.cust.ID)
	}
	if d.OriginalName != "report.TXT" {
		t.Errorf("OriginalName = %q, want report.TXT", d.OriginalName)
	}
	if d.FileSize != 5 {
		t.Errorf("FileSize = %d, want 5", d.FileSize)
	}
	if !strings.HasSuffix(d.BlobName, ".txt") || strings.Contains(d.BlobName, "report") {
		t.Errorf("BlobName = %q, want generated name with .txt extension", d.BlobName)
	}
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(d.BlobName)))
	if err != nil {
		t.Fatalf("reading blob: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("blob = %q, want hello", data)
	}

	var n int64
	f.db.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ?", "document", d.ID).Count(&n)
	if n != 1 {
		t.Errorf("audit rows = %d, want 1", n)
	}
}

func TestCreate_ForeignBranchForbidden(t *testing.T) {
	f := setup(t)
	staff := testutil.Employee(t, f.db, "t1", &f.branchA.ID, models.RoleEmployee, "9100000002", "pw")
	sc := mustScope(t, testutil.StaffSession("t1", f.branchA.ID, staff.ID, models.RoleEmployee))

	_, err := f.store.Create(context.Background(), sc, Upload{CustomerID: f.other.ID, OriginalName: "a.pdf", Body: strings.NewReader("x")})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("Create() error = %v, want ErrForbidden", err)
	}
	entries, _ := os.ReadDir(f.root)
	if len(entries) != 0 {
		t.Errorf("blob written for rejected upload: %v", entries)
	}
}

func TestCreate_CustomerCannotUpload(t *testing.T) {
	f := setup(t)
	sc := mustScope(t, testutil.CustomerSession(f.cust))
	_, err := f.store.Create(context.Background(), sc, Upload{CustomerID: f.cust.ID, OriginalName: "a.pdf", Body: strings.NewReader("x")})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("Create() error = %v, want ErrForbidden", err)
	}
}

func TestListAndOpen_CustomerSeesOwnOnly(t *testing.T) {
	f := setup(t)
	admin := mustScope(t, testutil.SuperAdminSession("t1", f.admin.ID))
	mine := upload(t, f, admin, f.cust.ID, "mine.txt", "mine")
	theirs := upload(t, f, admin, f.other.ID, "theirs.txt", "theirs")

	sc := mustScope(t, testutil.CustomerSession(f.cust))
	docs, err := f.store.List(context.Background(), sc, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != mine.ID {
		t.Fatalf("List() = %+v, want only document %d", docs, mine.ID)
	}

	_, r, err := f.store.Open(context.Background(), sc, mine.ID)
	if err != nil {
		t.Fatalf("Open(own) error = %v", err)
	}
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	r.Close()
	if buf.String() != "mine" {
		t.Errorf("Open(own) body = %q", buf.String())
	}

	if _, _, err := f.store.Open(context.Background(), sc, theirs.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("Open(foreign) error = %v, want ErrForbidden", err)
	}
}

func TestDelete_RemovesRowAndBlob(t *testing.T) {
	f := setup(t)
	sc := mustScope(t, testutil.SuperAdminSession("t1", f.admin.ID))
	d := upload(t, f, sc, f.cust.ID, "gone.txt", "bye")

	if err := f.store.Delete(context.Background(), sc, d.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.store.Get(context.Background(), sc, d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(d.BlobName))); !os.IsNotExist(err) {
		t.Errorf("blob still present: %v", err)
	}
}

func TestDiskStorage_RejectsEscapingNames(t *testing.T) {
	disk, err := NewDiskStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"../x", "/etc/passwd", "..", ""} {
		if _, err := disk.Put(context.Background(), name, strings.NewReader("x")); err == nil {
			t.Errorf("Put(%q) succeeded, want error", name)
		}
	}
	if _, err := disk.Open(context.Background(), "1/missing.txt"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrBlobNotFound", err)
	}
}

func TestDiskStorage_OpenFailureReturnsNilReader(t *testing.T) {
	disk, err := NewDiskStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := disk.Put(ctx, "plain.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	r, err := disk.Open(ctx, "plain.txt/inner")
	if err == nil || errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("Open() error = %v, want a non-missing failure", err)
	}
	if r != nil {
		t.Errorf("Open() reader = %#v, want nil", r)
	}
}
