package domain

// Audit is the persisted result of one reconciliation run. The category
// breakdown is stored as a JSON text column (BreakdownRaw) and decoded
// into CategoryBreakdown before leaving the service layer.
type Audit struct {
	ID                  int64   `db:"id" json:"id"`
	CompanyID           int64   `db:"company_id" json:"company_id"`
	Reference           string  `db:"reference" json:"reference"`
	AuditDate           string  `db:"audit_date" json:"audit_date"`
	StartDate           string  `db:"start_date" json:"start_date"`
	EndDate             string  `db:"end_date" json:"end_date"`
	Period              string  `db:"period" json:"period,omitempty"`
	Notes               string  `db:"notes" json:"notes,omitempty"`
	IncludeExpenses     bool    `db:"include_expenses" json:"include_expenses"`
	TotalInventoryValue float64 `db:"total_inventory_value" json:"total_inventory_value"`
	GrossSales          float64 `db:"gross_sales" json:"gross_sales"`
	CostOfGoodsSold     float64 `db:"cost_of_goods_sold" json:"cost_of_goods_sold"`
	NetProfit           float64 `db:"net_profit" json:"net_profit"`
	ProfitMargin        float64 `db:"profit_margin" json:"profit_margin"`
	TotalExpenses       float64 `db:"total_expenses" json:"total_expenses"`
	FinalNetProfit      float64 `db:"final_net_profit" json:"final_net_profit"`
	BreakdownRaw        string  `db:"category_breakdown" json:"-"`
	CreatedAt           string  `db:"created_at" json:"created_at"`
	UpdatedAt           string  `db:"updated_at" json:"updated_at"`

	CategoryBreakdown CategoryBreakdown `db:"-" json:"category_breakdown,omitempty"`
	Items             []AuditItem       `db:"-" json:"items,omitempty"`
}

// AuditItem snapshots one counted inventory item. ExpectedQuantity is
// the item's live total_stock at the moment the audit row was written;
// it is never recomputed afterwards.
type AuditItem struct {
	ID               int64   `db:"id" json:"id"`
	AuditID          int64   `db:"audit_id" json:"audit_id"`
	InventoryItemID  int64   `db:"inventory_item_id" json:"inventory_item_id"`
	ExpectedQuantity int64   `db:"expected_quantity" json:"expected_quantity"`
	ActualQuantity   int64   `db:"actual_quantity" json:"actual_quantity"`
	Discrepancy      int64   `db:"discrepancy" json:"discrepancy"`
	UnitPrice        float64 `db:"unit_price" json:"unit_price"`
	TotalValue       float64 `db:"total_value" json:"total_value"`
	Notes            string  `db:"notes" json:"notes,omitempty"`

	// Joined inventory detail, populated on reads.
	ItemName     string `db:"item_name" json:"item_name,omitempty"`
	CategoryName string `db:"category_name" json:"category_name,omitempty"`
}

// CategoryBreakdown maps category id to its aggregated sales figures.
type CategoryBreakdown map[int64]*CategorySummary

type CategorySummary struct {
	CategoryName string             `json:"category_name"`
	ItemsSold    int64              `json:"items_sold"`
	TotalCost    float64            `json:"total_cost"`
	TotalRevenue float64            `json:"total_revenue"`
	TotalProfit  float64            `json:"total_profit"`
	Items        []CategoryItemSale `json:"items"`
}

type CategoryItemSale struct {
	ItemName     string  `json:"item_name"`
	Quantity     int64   `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalCost    float64 `json:"total_cost"`
	TotalRevenue float64 `json:"total_revenue"`
	Profit       float64 `json:"profit"`
}

// FinancialSummary is the output of one reconciliation computation.
type FinancialSummary struct {
	GrossSales        float64           `json:"gross_sales"`
	CostOfGoodsSold   float64           `json:"cost_of_goods_sold"`
	NetProfit         float64           `json:"net_profit"`
	ProfitMargin      float64           `json:"profit_margin"`
	TotalExpenses     float64           `json:"total_expenses"`
	FinalNetProfit    float64           `json:"final_net_profit"`
	CategoryBreakdown CategoryBreakdown `json:"category_breakdown"`
}

// AuditListSummary aggregates the stored financials of a listed set of
// audits plus the absolute discrepancy value across all their items.
type AuditListSummary struct {
	TotalAudits           int     `json:"total_audits"`
	TotalInventoryValue   float64 `json:"total_inventory_value"`
	TotalGrossSales       float64 `json:"total_gross_sales"`
	TotalCostOfGoodsSold  float64 `json:"total_cost_of_goods_sold"`
	TotalNetProfit        float64 `json:"total_net_profit"`
	TotalExpenses         float64 `json:"total_expenses"`
	TotalFinalNetProfit   float64 `json:"total_final_net_profit"`
	TotalDiscrepancyValue float64 `json:"total_discrepancy_value"`
}
