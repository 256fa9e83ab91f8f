package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"seva-backend/internal/apperr"
	"seva-backend/internal/audit"
	"seva-backend/internal/metrics"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"
	"seva-backend/internal/session"
	"seva-backend/internal/testutil"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const gatewaySecret = "gateway-secret"

type fakeGateway struct {
	orders int
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, receipt string, _ map[string]string) (Order, error) {
	f.orders++
	return Order{ID: fmt.Sprintf("order_%d", f.orders), Amount: amountPaise, Currency: Currency, Receipt: receipt, Status: "created"}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return ValidSignature(gatewaySecret, orderID, paymentID, signature)
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

type fixture struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	admin   models.Employee
	cust    models.Customer
	other   models.Customer
	branchA models.Branch
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.DB(t)
	testutil.Business(t, db, "t1")
	a := testutil.Branch(t, db, "t1", "A")
	b := testutil.Branch(t, db, "t1", "B")
	return fixture{
		db:      db,
		metrics: metrics.New(),
		admin:   testutil.Employee(t, db, "t1", nil, models.RoleSuperAdmin, "9100000001", "pw"),
		cust:    testutil.Customer(t, db, "t1", a.ID, "9200000001", "pw"),
		other:   testutil.Customer(t, db, "t1", b.ID, "9200000002", "pw"),
		branchA: a,
	}
}

func (f fixture) store(testMode bool) *Store {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewStore(f.db, &fakeGateway{}, testMode, audit.NewWriter(f.db, log), f.metrics, log)
}

func mustScope(t *testing.T, s session.Session) scope.Scope {
	t.Helper()
	sc, err := scope.New(s)
	if err != nil {
		t.Fatalf("scope.New() error = %v", err)
	}
	return sc
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestRecord_CreatesCompletedWorkEntry(t *testing.T) {
	f := setup(t)
	s := f.store(false)
	sc := mustScope(t, testutil.SuperAdminSession("t1", f.admin.ID))

	p, err := s.Record(context.Background(), sc, RecordInput{CustomerID: f.cust.ID, Amount: dec("250.5"), Mode: "cash"})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if p.BranchID != f.branchA.ID || p.TenantID != "t1" || p.Status != models.PaymentStatusCompleted {
		t.Errorf("payment = %+v", p)
	}
	if p.WorkEntryID == nil {
		t.Fatal("payment not linked to a work entry")
	}

	var w models.WorkEntry
	if err := f.db.First(&w, *p.WorkEntryID).Error; err != nil {
		t.Fatalf("loading work entry: %v", err)
	}
	if w.Status != models.WorkStatusCompleted || w.Description != "Payment received - "+f.cust.Name {
		t.Errorf("work entry = %+v", w)
	}
	if !w.Amount.Equal(decimal.RequireFromString("250.50")) || w.PaymentMode != models.PaymentModeCash {
		t.Errorf("work entry amount/mode = %s/%s", w.Amount, w.PaymentMode)
	}
	if w.EmployeeID == nil || *w.EmployeeID != f.admin.ID {
		t.Errorf("work entry employee = %v, want %d", w.EmployeeID, f.admin.ID)
	}
	if got := promtest.ToFloat64(f.metrics.Payments.WithLabelValues("cash")); got != 1 {
		t.Errorf("payments metric = %v, want 1", got)
	}
}

func TestRecord_CompletesLinkedWorkEntry(t *testing.T) {
	f := setup(t)
	s := f.store(false)
	sc := mustScope(t, testutil.SuperAdminSession("t1", f.admin.ID))

	w := models.WorkEntry{
		TenantID: "t1", BranchID: f.branchA.ID, CustomerID: f.cust.ID, Description: "Filing",
		Amount: decimal.NewFromInt(300), Status: models.WorkStatusPending, PaymentMode: models.PaymentModePending,
	}
	if err := f.db.Create(&w).Error; err != nil {
		t.Fatal(err)
	}

	p, err := s.Record(context.Background(), sc, RecordInput{CustomerID: f.cust.ID, WorkEntryID: &w.ID, Amount: dec("300"), Mode: "upi"})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if p.WorkEntryID == nil || *p.WorkEntryID != w.ID {
		t.Errorf("WorkEntryID = %v, want %d", p.WorkEntryID, w.ID)
	}
	var reloaded models.WorkEntry
	f.db.First(&reloaded, w.ID)
	if reloaded.Status != models.WorkStatusCompleted || reloaded.PaymentMode != models.PaymentModeUPI {
		t.Errorf("linked entry = %s/%s, want completed/upi", reloaded.Status, reloaded.PaymentMode)
	}
	var n int64
	f.db.Model(&models.WorkEntry{}).Count(&n)
	if n != 1 {
		t.Errorf("work entries = %d, want 1", n)
	}

	// An entry of another customer cannot be linked.
	_, err = s.Record(context.Background(), sc, RecordInput{CustomerID: f.other.ID, WorkEntryID: &w.ID, Amount: dec("1"), Mode: "cash"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("foreign work entry: error = %v, want ErrValidation", err)
	}
}

func TestRecord_Validation(t *testing.T) {
	f := setup(t)
	s := f.store(false)
	sc := mustScope(t, testutil.SuperAdminSession("t1", f.admin.ID))

	cases := map[string]RecordInput{
		"missing customer": {Amount: dec("1"), Mode: "cash"},
		"missing amount":   {CustomerID: f.cust.ID, Mode: "cash"},
		"zero amount":      {CustomerID: f.cust.ID, Amount: dec("0"), Mode: "cash"},
		"pending mode":     {CustomerID: f.cust.ID, Amount: dec("1"), Mode: "pending"},
		"unknown mode":     {CustomerID: f.cust.ID, Amount: dec("1"), Mode: "cheque"},
	}
	for name, in := range cases {
		if _, err := s.Record(context.Background(), sc, in); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: error = %v, want ErrValidation", name, err)
		}
	}
	var n int64
	f.db.Model(&models.Payment{}).Count(&n)
	if n != 0 {
		t.Errorf("payments = %d, want 0", n)
	}
}

func TestRecord_BranchAdminForeignCustomer(t *testing.T) {
	f := setup(t)
	s := f.store(false)
	ba := testutil.Employee(t, f.db, "t1", &f.branchA.ID, models.RoleBranchAdmin, "9100000002", "pw")
	sc := mustScope(t, testutil.StaffSession("t1", f.branchA.ID, ba.ID, models.RoleBranchAdmin))

	_, err := s.Record(context.Background(), sc, RecordInput{CustomerID: f.other.ID, Amount: dec("10"), Mode: "cash"})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("Record() error = %v, want ErrForbidden", err)
	}
}

func TestGatewayFlow(t *testing.T) {
	f := setup(t)
	s := f.store(false)
	sc := mustScope(t, testutil.CustomerSession(f.cust))

	order, err := s.CreateOrder(context.Background(), sc, OrderInput{Amount: dec("99.99")})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.Amount != 9999 || order.KeyID != "rzp_test_key" || order.PaymentID == 0 {
		t.Errorf("order = %+v", order)
	}

	_, err = s.Verify(context.Background(), sc, VerifyInput{OrderID: order.OrderID, PaymentID: "pay_1", Signature: "deadbeef"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Verify(tampered) error = %v, want ErrValidation", err)
	}
	var p models.Payment
	f.db.First(&p, order.PaymentID)
	if p.Status != models.PaymentStatusFailed {
		t.Errorf("status after bad signature = %s, want failed", p.Status)
	}

	order2, err := s.CreateOrder(context.Background(), sc, OrderInput{CustomerID: f.cust.ID, Amount: dec("10")})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	sig := Sign(gatewaySecret, order2.OrderID, "pay_2")
	p, err = s.Verify(context.Background(), sc, VerifyInput{OrderID: order2.OrderID, PaymentID: "pay_2", Signature: sig})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.Status != models.PaymentStatusCompleted || p.Mode != models.PaymentModeUPI || p.BranchID != f.branchA.ID {
		t.Errorf("payment = %+v", p)
	}

	// Replaying the same verification is idempotent.
	if _, err := s.Verify(context.Background(), sc, VerifyInput{OrderID: order2.OrderID, PaymentID: "pay_2", Signature: sig}); err != nil {
		t.Errorf("replayed Verify() error = %v", err)
	}
}

func TestGateway_TestModeAcceptsBadSignature(t *testing.T) {
	f := setup(t)
	s := f.store(true)
	sc := mustScope(t, testutil.SuperAdminSession("t1", f.admin.ID))

	order, err := s.CreateOrder(context.Background(), sc, OrderInput{CustomerID: f.cust.ID, Amount: dec("5")})
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.Verify(context.Background(), sc, VerifyInput{OrderID: order.OrderID, PaymentID: "pay_x", Signature: "nope"})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if p.Status != models.PaymentStatusCompleted || p.Mode != models.PaymentModeTest {
		t.Errorf("payment = %s/%s, want completed/test", p.Status, p.Mode)
	}
}

func TestGateway_CustomerCannotPayForOthers(t *testing.T) {
	f := setup(t)
	s := f.store(false)
	sc := mustScope(t, testutil.CustomerSession(f.cust))

	if _, err := s.CreateOrder(context.Background(), sc, OrderInput{CustomerID: f.other.ID, Amount: dec("5")}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("CreateOrder(other) error = %v, want ErrForbidden", err)
	}

	admin := mustScope(t, testutil.SuperAdminSession("t1", f.admin.ID))
	order, err := s.CreateOrder(context.Background(), admin, OrderInput{CustomerID: f.other.ID, Amount: dec("5")})
	if err != nil {
		t.Fatal(err)
	}
	sig := Sign(gatewaySecret, order.OrderID, "pay_9")
	if _, err := s.Verify(context.Background(), sc, VerifyInput{OrderID: order.OrderID, PaymentID: "pay_9", Signature: sig}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("Verify(other's order) error = %v, want ErrForbidden", err)
	}
}
