package audit

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"optipos/m/domain"
	"optipos/m/internal/metrics"
)

// DayStart normalizes t to the inclusive lower day boundary (00:00:00.000).
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd normalizes t to the inclusive upper day boundary (23:59:59.999).
// Skipping this normalization produces an off-by-a-day range, so every
// caller goes through DayStart/DayEnd before querying.
func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}

// fmtTime renders a timestamp the way SQLite's CURRENT_TIMESTAMP does,
// so string comparison in WHERE clauses stays correct.
func fmtTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.999")
}

// legItem is an inventory item with its category, resolved for one sale leg.
type legItem struct {
	ID           int64   `db:"id"`
	CategoryID   int64   `db:"category_id"`
	Name         string  `db:"name"`
	UnitPrice    float64 `db:"unit_price"`
	CategoryName string  `db:"category_name"`
}

// ComputeFinancials aggregates sales in [start, end] for the company into
// gross sales, cost of goods sold, profit figures and a category-level
// breakdown. It is a pure read: nothing is persisted here.
func (s *Service) ComputeFinancials(ctx context.Context, companyID int64, start, end time.Time, includeExpenses bool) (domain.FinancialSummary, error) {
	return s.computeFinancials(ctx, s.db, companyID, start, end, includeExpenses)
}

func (s *Service) computeFinancials(ctx context.Context, q sqlx.QueryerContext, companyID int64, start, end time.Time, includeExpenses bool) (domain.FinancialSummary, error) {
	var sales []domain.Sale
	err := sqlx.SelectContext(ctx, q, &sales,
		`SELECT id, company_id, user_id, total, frame, lens, created_at FROM sales
         WHERE company_id = $1 AND created_at BETWEEN $2 AND $3`,
		companyID, fmtTime(start), fmtTime(end))
	if err != nil {
		return domain.FinancialSummary{}, err
	}

	var items []legItem
	err = sqlx.SelectContext(ctx, q, &items,
		`SELECT i.id, i.category_id, i.name, i.unit_price, c.name AS category_name
         FROM inventory_items i
         JOIN categories c ON c.id = i.category_id
         WHERE i.company_id = $1`, companyID)
	if err != nil {
		return domain.FinancialSummary{}, err
	}

	// Sales reference inventory by exact item name. A renamed or deleted
	// item simply fails to resolve and that leg contributes nothing.
	byName := make(map[string]legItem, len(items))
	for _, item := range items {
		byName[item.Name] = item
	}

	summary := domain.FinancialSummary{CategoryBreakdown: domain.CategoryBreakdown{}}

	for _, sale := range sales {
		summary.GrossSales += sale.Total

		frame, frameOK := byName[sale.Frame]
		lens, lensOK := byName[sale.Lens]

		var frameCost, lensCost float64
		if frameOK {
			frameCost = frame.UnitPrice
		}
		if lensOK {
			lensCost = lens.UnitPrice
		}
		summary.CostOfGoodsSold += frameCost + lensCost

		// Apportion the sale total between the two legs by cost share.
		var frameRevenue, lensRevenue float64
		switch {
		case frameOK && lensOK:
			if frameCost+lensCost == 0 {
				frameRevenue = sale.Total / 2
			} else {
				frameRevenue = sale.Total * frameCost / (frameCost + lensCost)
			}
			lensRevenue = sale.Total - frameRevenue
		case frameOK:
			frameRevenue = sale.Total
		case lensOK:
			lensRevenue = sale.Total
		}

		if frameOK {
			accumulateLeg(summary.CategoryBreakdown, frame, frameRevenue)
		}
		if lensOK {
			accumulateLeg(summary.CategoryBreakdown, lens, lensRevenue)
		}
	}

	summary.NetProfit = summary.GrossSales - summary.CostOfGoodsSold
	if summary.GrossSales > 0 {
		summary.ProfitMargin = summary.NetProfit / summary.GrossSales * 100
	}

	if includeExpenses {
		var billTotal, salaryTotal float64
		err = sqlx.GetContext(ctx, q, &billTotal,
			`SELECT COALESCE(SUM(amount), 0) FROM bills
             WHERE company_id = $1 AND created_at BETWEEN $2 AND $3`,
			companyID, fmtTime(start), fmtTime(end))
		if err != nil {
			return domain.FinancialSummary{}, err
		}
		err = sqlx.GetContext(ctx, q, &salaryTotal,
			`SELECT COALESCE(SUM(amount), 0) FROM salaries
             WHERE company_id = $1 AND created_at BETWEEN $2 AND $3`,
			companyID, fmtTime(start), fmtTime(end))
		if err != nil {
			return domain.FinancialSummary{}, err
		}
		summary.TotalExpenses = billTotal + salaryTotal
	}
	summary.FinalNetProfit = summary.NetProfit - summary.TotalExpenses

	metrics.Reconciliations.Inc()
	return summary, nil
}

// accumulateLeg folds one resolved sale leg into the category breakdown.
func accumulateLeg(breakdown domain.CategoryBreakdown, item legItem, revenue float64) {
	cat := breakdown[item.CategoryID]
	if cat == nil {
		cat = &domain.CategorySummary{CategoryName: item.CategoryName}
		breakdown[item.CategoryID] = cat
	}

	cost := item.UnitPrice
	cat.ItemsSold++
	cat.TotalCost += cost
	cat.TotalRevenue += revenue
	cat.TotalProfit += revenue - cost

	for i := range cat.Items {
		if cat.Items[i].ItemName == item.Name {
			row := &cat.Items[i]
			row.Quantity++
			row.TotalCost += cost
			row.TotalRevenue += revenue
			row.Profit += revenue - cost
			return
		}
	}
	cat.Items = append(cat.Items, domain.CategoryItemSale{
		ItemName:     item.Name,
		Quantity:     1,
		UnitPrice:    cost,
		TotalCost:    cost,
		TotalRevenue: revenue,
		Profit:       revenue - cost,
	})
}
