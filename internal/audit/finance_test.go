package audit

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"optipos/m/domain"
	"optipos/m/internal/migrations"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	migrations.Run(db)
	return db
}

func newTestService(t *testing.T) (*Service, *sqlx.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, zap.NewNop()), db
}

func seedCompany(t *testing.T, db *sqlx.DB, name string) int64 {
	t.Helper()
	var id int64
	if err := db.QueryRowx(`INSERT INTO companies (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return id
}

func seedCategory(t *testing.T, db *sqlx.DB, companyID int64, name string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRowx(`INSERT INTO categories (company_id, name) VALUES ($1, $2) RETURNING id`,
		companyID, name).Scan(&id)
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return id
}

func seedItem(t *testing.T, db *sqlx.DB, companyID, categoryID int64, name string, unitPrice float64, stock int64) int64 {
	t.Helper()
	var id int64
	err := db.QueryRowx(
		`INSERT INTO inventory_items (company_id, category_id, name, unit_price, total_stock)
         VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		companyID, categoryID, name, unitPrice, stock).Scan(&id)
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return id
}

func seedSale(t *testing.T, db *sqlx.DB, companyID int64, total float64, frame, lens, createdAt string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO sales (company_id, total, frame, lens, created_at) VALUES ($1, $2, $3, $4, $5)`,
		companyID, total, frame, lens, createdAt)
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}
}

func seedBill(t *testing.T, db *sqlx.DB, companyID int64, amount float64, createdAt string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO bills (company_id, title, amount, created_at) VALUES ($1, 'rent', $2, $3)`,
		companyID, amount, createdAt)
	if err != nil {
		t.Fatalf("seed bill: %v", err)
	}
}

func seedSalary(t *testing.T, db *sqlx.DB, companyID int64, amount float64, createdAt string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO salaries (company_id, employee_name, amount, created_at) VALUES ($1, 'clerk', $2, $3)`,
		companyID, amount, createdAt)
	if err != nil {
		t.Fatalf("seed salary: %v", err)
	}
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse day %q: %v", value, err)
	}
	return parsed
}

// January 2000 is the fixture month used throughout these tests.
const (
	rangeStart = "2000-01-01"
	rangeEnd   = "2000-01-31"
	midMonth   = "2000-01-15 10:00:00"
)

func computeJanuary(t *testing.T, svc *Service, companyID int64, includeExpenses bool) domain.FinancialSummary {
	t.Helper()
	fin, err := svc.ComputeFinancials(context.Background(), companyID,
		DayStart(day(t, rangeStart)), DayEnd(day(t, rangeEnd)), includeExpenses)
	if err != nil {
		t.Fatalf("compute financials: %v", err)
	}
	return fin
}

func TestComputeFinancialsProportionalSplit(t *testing.T) {
	svc, db := newTestService(t)
	company := seedCompany(t, db, "Visionary Optics")
	frames := seedCategory(t, db, company, "Frames")
	lenses := seedCategory(t, db, company, "Lenses")
	seedItem(t, db, company, frames, "Aviator Classic", 300, 10)
	seedItem(t, db, company, lenses, "CR-39 Single Vision", 200, 20)
	seedSale(t, db, company, 1000, "Aviator Classic", "CR-39 Single Vision", midMonth)

	fin := computeJanuary(t, svc, company, false)

	if fin.GrossSales != 1000 {
		t.Fatalf("gross sales = %v, want 1000", fin.GrossSales)
	}
	if fin.CostOfGoodsSold != 500 {
		t.Fatalf("cost of goods sold = %v, want 500", fin.CostOfGoodsSold)
	}
	if fin.NetProfit != 500 {
		t.Fatalf("net profit = %v, want 500", fin.NetProfit)
	}
	if fin.ProfitMargin != 50 {
		t.Fatalf("profit margin = %v, want 50", fin.ProfitMargin)
	}
	if fin.FinalNetProfit != fin.NetProfit {
		t.Fatalf("final net profit = %v, want %v when expenses excluded", fin.FinalNetProfit, fin.NetProfit)
	}

	frameCat := fin.CategoryBreakdown[frames]
	lensCat := fin.CategoryBreakdown[lenses]
	if frameCat == nil || lensCat == nil {
		t.Fatalf("expected both categories in breakdown, got %#v", fin.CategoryBreakdown)
	}
	if frameCat.TotalRevenue != 600 {
		t.Fatalf("frame revenue = %v, want 600", frameCat.TotalRevenue)
	}
	if lensCat.TotalRevenue != 400 {
		t.Fatalf("lens revenue = %v, want 400", lensCat.TotalRevenue)
	}
	if frameCat.ItemsSold != 1 || lensCat.ItemsSold != 1 {
		t.Fatalf("items sold = %d/%d, want 1/1", frameCat.ItemsSold, lensCat.ItemsSold)
	}
}

func TestComputeFinancialsZeroCostSplitsEvenly(t *testing.T) {
	svc, db := newTestService(t)
	company := seedCompany(t, db, "Zero Cost Co")
	frames := seedCategory(t, db, company, "Frames")
	lenses := seedCategory(t, db, company, "Lenses")
	seedItem(t, db, company, frames, "Promo Frame", 0, 5)
	seedItem(t, db, company, lenses, "Promo Lens", 0, 5)
	seedSale(t, db, company, 80, "Promo Frame", "Promo Lens", midMonth)

	fin := computeJanuary(t, svc, company, false)

	if fin.CategoryBreakdown[frames].TotalRevenue != 40 {
		t.Fatalf("frame revenue = %v, want 40", fin.CategoryBreakdown[frames].TotalRevenue)
	}
	if fin.CategoryBreakdown[lenses].TotalRevenue != 40 {
		t.Fatalf("lens revenue = %v, want 40", fin.CategoryBreakdown[lenses].TotalRevenue)
	}
	if fin.CostOfGoodsSold != 0 {
		t.Fatalf("cost of goods sold = %v, want 0", fin.CostOfGoodsSold)
	}
}

func TestComputeFinancialsUnmatchedLeg(t *testing.T) {
	svc, db := newTestService(t)
	company := seedCompany(t, db, "One Leg Optics")
	frames := seedCategory(t, db, company, "Frames")
	seedItem(t, db, company, frames, "Aviator Classic", 300, 10)
	seedSale(t, db, company, 1000, "Aviator Classic", "Discontinued Lens", midMonth)

	fin := computeJanuary(t, svc, company, false)

	if fin.GrossSales != 1000 {
		t.Fatalf("gross sales = %v, want 1000", fin.GrossSales)
	}
	if fin.CostOfGoodsSold != 300 {
		t.Fatalf("cost of goods sold = %v, want 300", fin.CostOfGoodsSold)
	}
	frameCat := fin.CategoryBreakdown[frames]
	if frameCat == nil || frameCat.TotalRevenue != 1000 {
		t.Fatalf("frame leg should carry the full total, got %#v", frameCat)
	}
	if len(fin.CategoryBreakdown) != 1 {
		t.Fatalf("unmatched lens must not appear in breakdown: %#v", fin.CategoryBreakdown)
	}
}

func TestComputeFinancialsNoSales(t *testing.T) {
	svc, db := newTestService(t)
	company := seedCompany(t, db, "Quiet Month Optics")

	fin := computeJanuary(t, svc, company, false)

	if fin.GrossSales != 0 || fin.NetProfit != 0 {
		t.Fatalf("expected zero financials, got %+v", fin)
	}
	if fin.ProfitMargin != 0 {
		t.Fatalf("profit margin = %v, want 0 when gross sales are zero", fin.ProfitMargin)
	}
	if len(fin.CategoryBreakdown) != 0 {
		t.Fatalf("expected empty breakdown, got %#v", fin.CategoryBreakdown)
	}
}

func TestComputeFinancialsExpenses(t *testing.T) {
	svc, db := newTestService(t)
	company := seedCompany(t, db, "Expense Optics")
	frames := seedCategory(t, db, company, "Frames")
	seedItem(t, db, company, frames, "Aviator Classic", 300, 10)
	seedSale(t, db, company, 1000, "Aviator Classic", "", midMonth)
	seedBill(t, db, company, 150, midMonth)
	seedBill(t, db, company, 50, midMonth)
	seedSalary(t, db, company, 300, midMonth)
	// Outside the range, must not count.
	seedBill(t, db, company, 999, "1999-12-31 23:59:59")

	fin := computeJanuary(t, svc, company, true)
	if fin.TotalExpenses != 500 {
		t.Fatalf("total expenses = %v, want 500", fin.TotalExpenses)
	}
	if fin.FinalNetProfit != fin.NetProfit-500 {
		t.Fatalf("final net profit = %v, want %v", fin.FinalNetProfit, fin.NetProfit-500)
	}

	excluded := computeJanuary(t, svc, company, false)
	if excluded.TotalExpenses != 0 || excluded.FinalNetProfit != excluded.NetProfit {
		t.Fatalf("expenses must be zero when excluded, got %+v", excluded)
	}
}

func TestComputeFinancialsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	company := seedCompany(t, db, "Stable Optics")
	frames := seedCategory(t, db, company, "Frames")
	lenses := seedCategory(t, db, company, "Lenses")
	seedItem(t, db, company, frames, "Aviator Classic", 300, 10)
	seedItem(t, db, company, lenses, "CR-39 Single Vision", 200, 20)
	seedSale(t, db, company, 1000, "Aviator Classic", "CR-39 Single Vision", midMonth)
	seedSale(t, db, company, 750, "Aviator Classic", "", "2000-01-20 09:30:00")

	first := computeJanuary(t, svc, company, true)
	second := computeJanuary(t, svc, company, true)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recomputation diverged:\nfirst  %#v\nsecond %#v", first, second)
	}
}

func TestComputeFinancialsTenantIsolation(t *testing.T) {
	svc, db := newTestService(t)
	company := seedCompany(t, db, "Mine Optics")
	other := seedCompany(t, db, "Theirs Optics")
	frames := seedCategory(t, db, other, "Frames")
	seedItem(t, db, other, frames, "Aviator Classic", 300, 10)
	seedSale(t, db, other, 1000, "Aviator Classic", "", midMonth)

	fin := computeJanuary(t, svc, company, true)
	if fin.GrossSales != 0 || fin.CostOfGoodsSold != 0 || fin.TotalExpenses != 0 {
		t.Fatalf("cross-tenant leakage: %+v", fin)
	}
}

func TestComputeFinancialsDayBoundaries(t *testing.T) {
	svc, db := newTestService(t)
	company := seedCompany(t, db, "Boundary Optics")
	frames := seedCategory(t, db, company, "Frames")
	seedItem(t, db, company, frames, "Aviator Classic", 300, 10)
	seedSale(t, db, company, 100, "Aviator Classic", "", "2000-01-01 00:00:00")
	seedSale(t, db, company, 200, "Aviator Classic", "", "2000-01-31 23:59:59")
	seedSale(t, db, company, 999, "Aviator Classic", "", "1999-12-31 23:59:59")
	seedSale(t, db, company, 999, "Aviator Classic", "", "2000-02-01 00:00:00")

	fin := computeJanuary(t, svc, company, false)
	if fin.GrossSales != 300 {
		t.Fatalf("gross sales = %v, want 300 (inclusive day boundaries)", fin.GrossSales)
	}
}

func TestComputeFinancialsRepeatItemAggregation(t *testing.T) {
	svc, db := newTestService(t)
	company := seedCompany(t, db, "Repeat Optics")
	frames := seedCategory(t, db, company, "Frames")
	seedItem(t, db, company, frames, "Aviator Classic", 300, 10)
	seedSale(t, db, company, 500, "Aviator Classic", "", midMonth)
	seedSale(t, db, company, 700, "Aviator Classic", "", "2000-01-16 11:00:00")

	fin := computeJanuary(t, svc, company, false)
	cat := fin.CategoryBreakdown[frames]
	if cat == nil || len(cat.Items) != 1 {
		t.Fatalf("expected one aggregated item row, got %#v", cat)
	}
	row := cat.Items[0]
	if row.Quantity != 2 {
		t.Fatalf("item quantity = %d, want 2", row.Quantity)
	}
	if row.TotalRevenue != 1200 {
		t.Fatalf("item revenue = %v, want 1200", row.TotalRevenue)
	}
	if cat.ItemsSold != 2 {
		t.Fatalf("items sold = %d, want 2", cat.ItemsSold)
	}
}
