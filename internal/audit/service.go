package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"optipos/m/domain"
)

var (
	ErrAuditNotFound = errors.New("audit not found")
	ErrItemNotFound  = errors.New("inventory item not found")
	ErrNoItems       = errors.New("at least one audit item is required")
	ErrMissingDates  = errors.New("start_date and end_date are required")
	ErrInvalidDate   = errors.New("dates must be in YYYY-MM-DD format")
)

// Service owns the audit lifecycle: reconciliation computation plus
// create/update/delete/read of persisted audits.
type Service struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewService(db *sqlx.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// ItemInput is one physically counted inventory item submitted with an
// audit. ExpectedQuantity is accepted for wire compatibility but always
// ignored: the snapshot comes from live stock.
type ItemInput struct {
	InventoryItemID  int64  `json:"inventory_item_id"`
	ActualQuantity   int64  `json:"actual_quantity"`
	ExpectedQuantity *int64 `json:"expected_quantity,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

type CreateInput struct {
	AuditDate       string      `json:"audit_date,omitempty"`
	StartDate       string      `json:"start_date"`
	EndDate         string      `json:"end_date"`
	Period          string      `json:"period,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	IncludeExpenses bool        `json:"include_expenses"`
	Items           []ItemInput `json:"items"`
}

// UpdateInput patches an audit. Nil pointers leave fields untouched; a
// nil Items slice leaves the item rows untouched.
type UpdateInput struct {
	AuditDate       *string     `json:"audit_date"`
	StartDate       *string     `json:"start_date"`
	EndDate         *string     `json:"end_date"`
	Period          *string     `json:"period"`
	Notes           *string     `json:"notes"`
	IncludeExpenses *bool       `json:"include_expenses"`
	Items           []ItemInput `json:"items"`
}

type ListOptions struct {
	StartDate string
	EndDate   string
	Period    string
}

type ListResult struct {
	Audits  []domain.Audit          `json:"audits"`
	Summary domain.AuditListSummary `json:"summary"`
}

const auditColumns = `id, company_id, reference, audit_date, start_date, end_date, period, notes,
    include_expenses, total_inventory_value, gross_sales, cost_of_goods_sold, net_profit,
    profit_margin, total_expenses, final_net_profit, category_breakdown, created_at, updated_at`

func parseDay(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

func normalizeAuditDate(value string, now time.Time) string {
	if value == "" {
		return now.Format("2006-01-02 15:04:05")
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.Format("2006-01-02 15:04:05")
	}
	return value
}

// Create resolves every submitted item against live inventory, runs the
// financial reconciliation for the audit's date range and persists the
// audit with all its items in a single transaction.
func (s *Service) Create(ctx context.Context, companyID int64, in CreateInput) (*domain.Audit, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}
	if in.StartDate == "" || in.EndDate == "" {
		return nil, ErrMissingDates
	}
	start, err := parseDay(in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDay(in.EndDate)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, totalValue, err := s.snapshotItems(ctx, tx, companyID, in.Items)
	if err != nil {
		return nil, err
	}

	fin, err := s.computeFinancials(ctx, tx, companyID, DayStart(start), DayEnd(end), in.IncludeExpenses)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(fin.CategoryBreakdown)
	if err != nil {
		return nil, err
	}

	auditDate := normalizeAuditDate(in.AuditDate, time.Now().UTC())
	var id int64
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO audits (company_id, reference, audit_date, start_date, end_date, period, notes,
            include_expenses, total_inventory_value, gross_sales, cost_of_goods_sold, net_profit,
            profit_margin, total_expenses, final_net_profit, category_breakdown)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
         RETURNING id`,
		companyID, uuid.NewString(), auditDate, in.StartDate, in.EndDate, in.Period, in.Notes,
		in.IncludeExpenses, totalValue, fin.GrossSales, fin.CostOfGoodsSold, fin.NetProfit,
		fin.ProfitMargin, fin.TotalExpenses, fin.FinalNetProfit, string(raw)).Scan(&id)
	if err != nil {
		return nil, err
	}

	if err := insertItems(ctx, tx, id, rows); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("audit created",
		zap.Int64("audit_id", id),
		zap.Int64("company_id", companyID),
		zap.Int("items", len(rows)),
		zap.Float64("gross_sales", fin.GrossSales))

	return s.Get(ctx, companyID, id)
}

// Update patches audit fields. A supplied item list fully replaces the
// existing rows using the same live-stock snapshot rule as Create; a
// changed date range or expense flag triggers a full recomputation of
// the stored financials.
func (s *Service) Update(ctx context.Context, companyID, id int64, in UpdateInput) (*domain.Audit, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var a domain.Audit
	err = sqlx.GetContext(ctx, tx, &a,
		`SELECT `+auditColumns+` FROM audits WHERE id = $1 AND company_id = $2`, id, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAuditNotFound
	}
	if err != nil {
		return nil, err
	}

	recompute := false
	if in.StartDate != nil && *in.StartDate != a.StartDate {
		if _, err := parseDay(*in.StartDate); err != nil {
			return nil, err
		}
		a.StartDate = *in.StartDate
		recompute = true
	}
	if in.EndDate != nil && *in.EndDate != a.EndDate {
		if _, err := parseDay(*in.EndDate); err != nil {
			return nil, err
		}
		a.EndDate = *in.EndDate
		recompute = true
	}
	if in.IncludeExpenses != nil && *in.IncludeExpenses != a.IncludeExpenses {
		a.IncludeExpenses = *in.IncludeExpenses
		recompute = true
	}
	if in.AuditDate != nil {
		a.AuditDate = normalizeAuditDate(*in.AuditDate, time.Now().UTC())
	}
	if in.Period != nil {
		a.Period = *in.Period
	}
	if in.Notes != nil {
		a.Notes = *in.Notes
	}

	if in.Items != nil {
		if len(in.Items) == 0 {
			return nil, ErrNoItems
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM audit_items WHERE audit_id = $1`, id); err != nil {
			return nil, err
		}
		rows, totalValue, err := s.snapshotItems(ctx, tx, companyID, in.Items)
		if err != nil {
			return nil, err
		}
		if err := insertItems(ctx, tx, id, rows); err != nil {
			return nil, err
		}
		a.TotalInventoryValue = totalValue
	}

	if recompute {
		start, err := parseDay(a.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := parseDay(a.EndDate)
		if err != nil {
			return nil, err
		}
		fin, err := s.computeFinancials(ctx, tx, companyID, DayStart(start), DayEnd(end), a.IncludeExpenses)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(fin.CategoryBreakdown)
		if err != nil {
			return nil, err
		}
		a.GrossSales = fin.GrossSales
		a.CostOfGoodsSold = fin.CostOfGoodsSold
		a.NetProfit = fin.NetProfit
		a.ProfitMargin = fin.ProfitMargin
		a.TotalExpenses = fin.TotalExpenses
		a.FinalNetProfit = fin.FinalNetProfit
		a.BreakdownRaw = string(raw)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE audits SET audit_date = $1, start_date = $2, end_date = $3, period = $4, notes = $5,
            include_expenses = $6, total_inventory_value = $7, gross_sales = $8,
            cost_of_goods_sold = $9, net_profit = $10, profit_margin = $11, total_expenses = $12,
            final_net_profit = $13, category_breakdown = $14, updated_at = CURRENT_TIMESTAMP
         WHERE id = $15`,
		a.AuditDate, a.StartDate, a.EndDate, a.Period, a.Notes,
		a.IncludeExpenses, a.TotalInventoryValue, a.GrossSales,
		a.CostOfGoodsSold, a.NetProfit, a.ProfitMargin, a.TotalExpenses,
		a.FinalNetProfit, a.BreakdownRaw, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("audit updated",
		zap.Int64("audit_id", id),
		zap.Int64("company_id", companyID),
		zap.Bool("recomputed", recompute))

	return s.Get(ctx, companyID, id)
}

// Delete hard-deletes an audit and all of its items.
func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing int64
	err = sqlx.GetContext(ctx, tx, &existing,
		`SELECT id FROM audits WHERE id = $1 AND company_id = $2`, id, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAuditNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_items WHERE audit_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM audits WHERE id = $1`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.log.Info("audit deleted", zap.Int64("audit_id", id), zap.Int64("company_id", companyID))
	return nil
}

// Get loads one audit with its items and joined inventory detail.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*domain.Audit, error) {
	var a domain.Audit
	err := s.db.GetContext(ctx, &a,
		`SELECT `+auditColumns+` FROM audits WHERE id = $1 AND company_id = $2`, id, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAuditNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := decodeBreakdown(&a); err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &a.Items,
		`SELECT ai.id, ai.audit_id, ai.inventory_item_id, ai.expected_quantity, ai.actual_quantity,
            ai.discrepancy, ai.unit_price, ai.total_value, ai.notes,
            i.name AS item_name, c.name AS category_name
         FROM audit_items ai
         JOIN inventory_items i ON i.id = ai.inventory_item_id
         JOIN categories c ON c.id = i.category_id
         WHERE ai.audit_id = $1
         ORDER BY ai.id`, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns audits in the requested window, newest first, plus a
// cross-audit summary. Explicit dates win over a canned period; an
// unrecognized period falls back to epoch start.
func (s *Service) List(ctx context.Context, companyID int64, opts ListOptions) (*ListResult, error) {
	var start, end time.Time
	if opts.StartDate != "" && opts.EndDate != "" {
		var err error
		if start, err = parseDay(opts.StartDate); err != nil {
			return nil, err
		}
		if end, err = parseDay(opts.EndDate); err != nil {
			return nil, err
		}
	} else {
		start, end = periodRange(opts.Period, time.Now().UTC())
	}

	audits := []domain.Audit{}
	err := s.db.SelectContext(ctx, &audits,
		`SELECT `+auditColumns+` FROM audits
         WHERE company_id = $1 AND audit_date BETWEEN $2 AND $3
         ORDER BY audit_date DESC, id DESC`,
		companyID, fmtTime(DayStart(start)), fmtTime(DayEnd(end)))
	if err != nil {
		return nil, err
	}

	result := &ListResult{Audits: audits}
	result.Summary.TotalAudits = len(audits)
	for i := range audits {
		if err := decodeBreakdown(&result.Audits[i]); err != nil {
			return nil, err
		}
		a := &result.Audits[i]
		result.Summary.TotalInventoryValue += a.TotalInventoryValue
		result.Summary.TotalGrossSales += a.GrossSales
		result.Summary.TotalCostOfGoodsSold += a.CostOfGoodsSold
		result.Summary.TotalNetProfit += a.NetProfit
		result.Summary.TotalExpenses += a.TotalExpenses
		result.Summary.TotalFinalNetProfit += a.FinalNetProfit
	}

	if len(audits) > 0 {
		ids := make([]int64, len(audits))
		for i, a := range audits {
			ids[i] = a.ID
		}
		query, args, err := sqlx.In(
			`SELECT COALESCE(SUM(ABS(discrepancy) * unit_price), 0) FROM audit_items WHERE audit_id IN (?)`, ids)
		if err != nil {
			return nil, err
		}
		query = s.db.Rebind(query)
		if err := s.db.GetContext(ctx, &result.Summary.TotalDiscrepancyValue, query, args...); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// InventoryOption is one selectable item for the audit creation screen.
type InventoryOption struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	CategoryID   int64   `db:"category_id" json:"category_id"`
	CategoryName string  `db:"category_name" json:"category_name"`
	UnitPrice    float64 `db:"unit_price" json:"unit_price"`
	TotalStock   int64   `db:"total_stock" json:"total_stock"`
}

// ListInventory returns the company's inventory with category names for
// audit item selection.
func (s *Service) ListInventory(ctx context.Context, companyID int64) ([]InventoryOption, error) {
	options := []InventoryOption{}
	err := s.db.SelectContext(ctx, &options,
		`SELECT i.id, i.name, i.category_id, c.name AS category_name, i.unit_price, i.total_stock
         FROM inventory_items i
         JOIN categories c ON c.id = i.category_id
         WHERE i.company_id = $1
         ORDER BY c.name, i.name`, companyID)
	if err != nil {
		return nil, err
	}
	return options, nil
}

// snapshotItems resolves submitted items against live inventory. Expected
// quantity always comes from the item's current total_stock, never from
// the client, so the snapshot reflects true live stock.
func (s *Service) snapshotItems(ctx context.Context, tx *sqlx.Tx, companyID int64, inputs []ItemInput) ([]domain.AuditItem, float64, error) {
	rows := make([]domain.AuditItem, 0, len(inputs))
	var totalValue float64
	for _, in := range inputs {
		var item struct {
			ID         int64   `db:"id"`
			UnitPrice  float64 `db:"unit_price"`
			TotalStock int64   `db:"total_stock"`
		}
		err := sqlx.GetContext(ctx, tx, &item,
			`SELECT id, unit_price, total_stock FROM inventory_items WHERE id = $1 AND company_id = $2`,
			in.InventoryItemID, companyID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("%w: id %d", ErrItemNotFound, in.InventoryItemID)
		}
		if err != nil {
			return nil, 0, err
		}
		row := domain.AuditItem{
			InventoryItemID:  item.ID,
			ExpectedQuantity: item.TotalStock,
			ActualQuantity:   in.ActualQuantity,
			Discrepancy:      in.ActualQuantity - item.TotalStock,
			UnitPrice:        item.UnitPrice,
			TotalValue:       float64(in.ActualQuantity) * item.UnitPrice,
			Notes:            in.Notes,
		}
		totalValue += row.TotalValue
		rows = append(rows, row)
	}
	return rows, totalValue, nil
}

func insertItems(ctx context.Context, tx *sqlx.Tx, auditID int64, rows []domain.AuditItem) error {
	for _, row := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO audit_items (audit_id, inventory_item_id, expected_quantity, actual_quantity,
                discrepancy, unit_price, total_value, notes)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			auditID, row.InventoryItemID, row.ExpectedQuantity, row.ActualQuantity,
			row.Discrepancy, row.UnitPrice, row.TotalValue, row.Notes)
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeBreakdown(a *domain.Audit) error {
	if a.BreakdownRaw == "" {
		return nil
	}
	return json.Unmarshal([]byte(a.BreakdownRaw), &a.CategoryBreakdown)
}

// periodRange resolves a canned window, always ending at now. Unrecognized
// periods widen to epoch start.
func periodRange(period string, now time.Time) (time.Time, time.Time) {
	switch period {
	case "week":
		return now.AddDate(0, 0, -7), now
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now
	case "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), now
	default:
		return time.Unix(0, 0).UTC(), now
	}
}
