// Package report aggregates revenue and activity for admins.
package report

import (
	"context"
	"sort"

	"seva-backend/internal/apperr"
	"seva-backend/internal/httpx"
	"seva-backend/internal/models"
	"seva-backend/internal/scope"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Kind string

const (
	KindDaily   Kind = "daily"
	KindBranch  Kind = "branch"
	KindSummary Kind = "summary"
)

func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindDaily, nil
	}
	switch k := Kind(s); k {
	case KindDaily, KindBranch, KindSummary:
		return k, nil
	}
	return "", apperr.Validation("Invalid report type")
}

var (
	paymentColumns  = scope.Columns{Branch: "branch_id", Customer: "customer_id"}
	workColumns     = scope.Columns{Branch: "branch_id", Customer: "customer_id"}
	customerColumns = scope.Columns{Branch: "branch_id", Customer: "id"}
	documentColumns = scope.Columns{Branch: "branch_id", Customer: "customer_id"}
	branchColumns   = scope.Columns{Branch: "id", Shared: true}
)

type Query struct {
	BranchID *uint
	Range    httpx.Range
}

// DailyRow sums completed payments for one UTC day.
type DailyRow struct {
	Date        string          `json:"date"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CashAmount  decimal.Decimal `json:"cashAmount"`
	UPIAmount   decimal.Decimal `json:"upiAmount"`
	TestAmount  decimal.Decimal `json:"testAmount"`
	Count       int             `json:"workCount"`
}

// BranchRow sums completed work per branch.
type BranchRow struct {
	BranchID      uint            `json:"branchId"`
	BranchName    string          `json:"branchName"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	WorkCount     int             `json:"workCount"`
	CustomerCount int64           `json:"customerCount"`
}

type Summary struct {
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalWorks     int64           `json:"totalWorks"`
	TotalCustomers int64           `json:"totalCustomers"`
	TotalDocuments int64           `json:"totalDocuments"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// filtered applies scope, branch filter and date range to a query on a
// table with branch_id and created_at columns.
func (s *Service) filtered(ctx context.Context, sc scope.Scope, model any, cols scope.Columns, q Query) (*gorm.DB, error) {
	branchID, err := sc.Branch(q.BranchID)
	if err != nil {
		return nil, err
	}
	db := sc.Apply(s.db.WithContext(ctx).Model(model), cols)
	if branchID != nil {
		db = db.Where("branch_id = ?", *branchID)
	}
	if q.Range.From != nil {
		db = db.Where("created_at >= ?", *q.Range.From)
	}
	if q.Range.To != nil {
		db = db.Where("created_at < ?", *q.Range.To)
	}
	return db, nil
}

// Daily lists days with completed payments, newest first.
func (s *Service) Daily(ctx context.Context, sc scope.Scope, q Query) ([]DailyRow, error) {
	db, err := s.filtered(ctx, sc, &models.Payment{}, paymentColumns, q)
	if err != nil {
		return nil, err
	}
	var payments []models.Payment
	err = db.Select("amount", "mode", "created_at").
		Where("status = ?", models.PaymentStatusCompleted).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	byDay := map[string]*DailyRow{}
	for _, p := range payments {
		day := p.CreatedAt.UTC().Format(httpx.DateLayout)
		row, ok := byDay[day]
		if !ok {
			row = &DailyRow{Date: day}
			byDay[day] = row
		}
		row.TotalAmount = row.TotalAmount.Add(p.Amount)
		switch p.Mode {
		case models.PaymentModeCash:
			row.CashAmount = row.CashAmount.Add(p.Amount)
		case models.PaymentModeUPI:
			row.UPIAmount = row.UPIAmount.Add(p.Amount)
		case models.PaymentModeTest:
			row.TestAmount = row.TestAmount.Add(p.Amount)
		}
		row.Count++
	}

	out := make([]DailyRow, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Branches reports every visible branch, including those without work.
func (s *Service) Branches(ctx context.Context, sc scope.Scope, q Query) ([]BranchRow, error) {
	branchID, err := sc.Branch(q.BranchID)
	if err != nil {
		return nil, err
	}
	bq := sc.Apply(s.db.WithContext(ctx).Model(&models.Branch{}), branchColumns)
	if branchID != nil {
		bq = bq.Where("id = ?", *branchID)
	}
	var branches []models.Branch
	if err := bq.Order("name").Find(&branches).Error; err != nil {
		return nil, err
	}

	wq, err := s.filtered(ctx, sc, &models.WorkEntry{}, workColumns, q)
	if err != nil {
		return nil, err
	}
	var work []models.WorkEntry
	if err := wq.Select("branch_id", "amount").Where("status = ?", models.WorkStatusCompleted).Find(&work).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		BranchID uint
		N        int64
	}
	cq := sc.Apply(s.db.WithContext(ctx).Model(&models.Customer{}), customerColumns).Where("is_active = ?", true)
	if branchID != nil {
		cq = cq.Where("branch_id = ?", *branchID)
	}
	if err := cq.Select("branch_id, COUNT(*) AS n").Group("branch_id").Scan(&counts).Error; err != nil {
		return nil, err
	}

	rows := make([]BranchRow, len(branches))
	index := make(map[uint]int, len(branches))
	for i, b := range branches {
		rows[i] = BranchRow{BranchID: b.ID, BranchName: b.Name}
		index[b.ID] = i
	}
	for _, w := range work {
		if i, ok := index[w.BranchID]; ok {
			rows[i].TotalAmount = rows[i].TotalAmount.Add(w.Amount)
			rows[i].WorkCount++
		}
	}
	for _, c := range counts {
		if i, ok := index[c.BranchID]; ok {
			rows[i].CustomerCount = c.N
		}
	}
	return rows, nil
}

// Summary totals completed revenue and counts work, active customers and
// documents. Customer and document counts ignore the date range.
func (s *Service) Summary(ctx context.Context, sc scope.Scope, q Query) (Summary, error) {
	var out Summary

	wq, err := s.filtered(ctx, sc, &models.WorkEntry{}, workColumns, q)
	if err != nil {
		return out, err
	}
	var amounts []decimal.Decimal
	if err := wq.Session(&gorm.Session{}).Where("status = ?", models.WorkStatusCompleted).Pluck("amount", &amounts).Error; err != nil {
		return out, err
	}
	for _, a := range amounts {
		out.TotalRevenue = out.TotalRevenue.Add(a)
	}
	if err := wq.Session(&gorm.Session{}).Count(&out.TotalWorks).Error; err != nil {
		return out, err
	}

	unbounded := Query{BranchID: q.BranchID}
	cq, err := s.filtered(ctx, sc, &models.Customer{}, customerColumns, unbounded)
	if err != nil {
		return out, err
	}
	if err := cq.Where("is_active = ?", true).Count(&out.TotalCustomers).Error; err != nil {
		return out, err
	}

	dq, err := s.filtered(ctx, sc, &models.Document{}, documentColumns, unbounded)
	if err != nil {
		return out, err
	}
	if err := dq.Count(&out.TotalDocuments).Error; err != nil {
		return out, err
	}
	return out, nil
}
