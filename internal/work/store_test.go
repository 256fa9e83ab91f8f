package work

import (
	"context"
	"errors"
	"testing"
	"time"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/httpx"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"
	"seva-backend/internal/session"
	"seva-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	store *Store
	owner models.Employee
	staff models.Employee
	north models.Branch
	south models.Branch
	cust  models.Customer
	other models.Customer
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.DB(t)
	testutil.Business(t, db, "t1")
	f := fixture{
		db:    db,
		store: NewStore(db, audit.NewWriter(db, nil)),
		owner: testutil.Employee(t, db, "t1", nil, models.RoleSuperAdmin, "9000000001", "pw"),
		north: testutil.Branch(t, db, "t1", "North"),
		south: testutil.Branch(t, db, "t1", "South"),
	}
	f.staff = testutil.Employee(t, db, "t1", &f.north.ID, models.RoleEmployee, "9100000001", "pw")
	f.cust = testutil.Customer(t, db, "t1", f.north.ID, "9800000001", "pw")
	f.other = testutil.Customer(t, db, "t1", f.south.ID, "9800000002", "pw")
	return f
}

func mustScope(t *testing.T, s session.Session) scope.Scope {
	t.Helper()
	sc, err := scope.New(s)
	if err != nil {
		t.Fatalf("scope.New() error = %v", err)
	}
	return sc
}

func str(s string) *string { return &s }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f fixture) staffScope(t *testing.T) scope.Scope {
	return mustScope(t, testutil.StaffSession("t1", f.north.ID, f.staff.ID, models.RoleEmployee))
}

func TestCreate_Defaults(t *testing.T) {
	f := setup(t)
	w, err := f.store.Create(context.Background(), f.staffScope(t), Input{CustomerID: f.cust.ID, Description: str(" GST filing ")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if w.Description != "GST filing" || !w.Amount.IsZero() || w.Status != models.WorkStatusPending || w.PaymentMode != models.PaymentModePending {
		t.Errorf("work entry = %+v", w)
	}
	if w.TenantID != "t1" || w.BranchID != f.north.ID {
		t.Errorf("placement = (%s, %d)", w.TenantID, w.BranchID)
	}
	if w.EmployeeID == nil || *w.EmployeeID != f.staff.ID {
		t.Errorf("EmployeeID = %v, want caller %d", w.EmployeeID, f.staff.ID)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := setup(t)
	sc := f.staffScope(t)
	southStaff := testutil.Employee(t, f.db, "t1", &f.south.ID, models.RoleEmployee, "9100000002", "pw")

	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"missing description", Input{CustomerID: f.cust.ID}, apperr.ErrValidation},
		{"missing customer", Input{Description: str("x")}, apperr.ErrValidation},
		{"negative amount", Input{CustomerID: f.cust.ID, Description: str("x"), Amount: dec("-1")}, apperr.ErrValidation},
		{"bad status", Input{CustomerID: f.cust.ID, Description: str("x"), Status: str("done")}, apperr.ErrValidation},
		{"bad mode", Input{CustomerID: f.cust.ID, Description: str("x"), PaymentMode: str("card")}, apperr.ErrValidation},
		{"customer of another branch", Input{CustomerID: f.other.ID, Description: str("x")}, apperr.ErrForbidden},
		{"performer of another branch", Input{CustomerID: f.cust.ID, Description: str("x"), EmployeeID: &southStaff.ID}, apperr.ErrValidation},
		{"unknown customer", Input{CustomerID: 9999, Description: str("x")}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.store.Create(context.Background(), sc, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sc := f.staffScope(t)
	w, err := f.store.Create(ctx, sc, Input{CustomerID: f.cust.ID, Description: str("Audit"), Amount: dec("1000")})
	if err != nil {
		t.Fatal(err)
	}

	w, err = f.store.Update(ctx, sc, w.ID, Input{Status: str("completed"), PaymentMode: str("upi"), Amount: dec("1200.456")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if w.Status != models.WorkStatusCompleted || w.PaymentMode != models.PaymentModeUPI || !w.Amount.Equal(decimal.RequireFromString("1200.46")) {
		t.Errorf("work entry = %+v", w)
	}
	if _, err := f.store.Update(ctx, sc, w.ID, Input{CustomerID: f.other.ID}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("changing customer: error = %v, want ErrValidation", err)
	}
	if _, err := f.store.Update(ctx, sc, w.ID, Input{Description: str("  ")}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank description: error = %v, want ErrValidation", err)
	}
}

func TestList_ScopesAndFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := mustScope(t, testutil.SuperAdminSession("t1", f.owner.ID))
	for _, c := range []models.Customer{f.cust, f.cust, f.other} {
		if _, err := f.store.Create(ctx, admin, Input{CustomerID: c.ID, Description: str("service")}); err != nil {
			t.Fatal(err)
		}
	}
	old := models.WorkEntry{
		TenantID: "t1", BranchID: f.north.ID, CustomerID: f.cust.ID, Description: "old",
		Amount: decimal.Zero, Status: models.WorkStatusCompleted, PaymentMode: models.PaymentModeCash,
		CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.db.Create(&old)

	all, _ := f.store.List(ctx, admin, Filter{})
	if len(all) != 4 {
		t.Errorf("super admin sees %d, want 4", len(all))
	}
	staff, _ := f.store.List(ctx, f.staffScope(t), Filter{})
	if len(staff) != 3 {
		t.Errorf("north employee sees %d, want 3", len(staff))
	}
	self, _ := f.store.List(ctx, mustScope(t, testutil.CustomerSession(f.other)), Filter{})
	if len(self) != 1 || self[0].CustomerID != f.other.ID {
		t.Errorf("customer sees %+v", self)
	}
	completed, _ := f.store.List(ctx, admin, Filter{Status: models.WorkStatusCompleted})
	if len(completed) != 1 {
		t.Errorf("completed filter = %d, want 1", len(completed))
	}
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	day, _ := f.store.List(ctx, admin, Filter{Range: httpx.Range{From: &from, To: &to}})
	if len(day) != 1 || day[0].ID != old.ID {
		t.Errorf("date range = %+v", day)
	}
}

func TestDelete_UnlinksPayments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sc := f.staffScope(t)
	w, err := f.store.Create(ctx, sc, Input{CustomerID: f.cust.ID, Description: str("Return filing"), Amount: dec("300")})
	if err != nil {
		t.Fatal(err)
	}
	p := models.Payment{
		TenantID: "t1", BranchID: f.north.ID, CustomerID: f.cust.ID, WorkEntryID: &w.ID,
		Amount: decimal.NewFromInt(300), Mode: models.PaymentModeCash, Status: models.PaymentStatusCompleted,
	}
	f.db.Create(&p)

	customer := mustScope(t, testutil.CustomerSession(f.cust))
	if _, err := f.store.Get(ctx, customer, w.ID); err != nil {
		t.Errorf("customer Get(own) error = %v", err)
	}

	if err := f.store.Delete(ctx, sc, w.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.store.Get(ctx, sc, w.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	var reloaded models.Payment
	f.db.First(&reloaded, p.ID)
	if reloaded.WorkEntryID != nil {
		t.Errorf("payment still linked to %d", *reloaded.WorkEntryID)
	}
}
