package domain

type Sale struct {
	ID        int64   `db:"id" json:"id"`
	CompanyID int64   `db:"company_id" json:"company_id"`
	UserID    *int64  `db:"user_id" json:"user_id,omitempty"`
	Total     float64 `db:"total" json:"total"`
	Frame     string  `db:"frame" json:"frame"`
	Lens      string  `db:"lens" json:"lens"`
	CreatedAt string  `db:"created_at" json:"created_at"`
}
