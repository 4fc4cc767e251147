package domain

type Bill struct {
	ID        int64   `db:"id" json:"id"`
	CompanyID int64   `db:"company_id" json:"company_id"`
	Title     string  `db:"title" json:"title"`
	Amount    float64 `db:"amount" json:"amount"`
	CreatedAt string  `db:"created_at" json:"created_at"`
}

type Salary struct {
	ID           int64   `db:"id" json:"id"`
	CompanyID    int64   `db:"company_id" json:"company_id"`
	EmployeeName string  `db:"employee_name" json:"employee_name"`
	Amount       float64 `db:"amount" json:"amount"`
	CreatedAt    string  `db:"created_at" json:"created_at"`
}
