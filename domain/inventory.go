package domain

type InventoryItem struct {
	ID         int64   `db:"id" json:"id"`
	CompanyID  int64   `db:"company_id" json:"company_id"`
	CategoryID int64   `db:"category_id" json:"category_id"`
	Name       string  `db:"name" json:"name"`
	UnitPrice  float64 `db:"unit_price" json:"unit_price"`
	TotalStock int64   `db:"total_stock" json:"total_stock"`
	CreatedAt  string  `db:"created_at" json:"created_at"`
	UpdatedAt  string  `db:"updated_at" json:"updated_at"`
}
