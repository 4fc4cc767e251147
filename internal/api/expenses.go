package api

import (
	"net/http"
	"strings"

	"optipos/m/domain"
)

// Bill handlers

func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	bills := []domain.Bill{}
	err := h.db.Select(&bills,
		`SELECT id, company_id, title, amount, created_at FROM bills WHERE company_id = $1 ORDER BY created_at DESC`,
		companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list bills")
		return
	}
	respondJSON(w, http.StatusOK, bills)
}

type billRequest struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
}

func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "title and a positive amount are required")
		return
	}
	var id int64
	err := h.db.QueryRowx(`INSERT INTO bills (company_id, title, amount) VALUES ($1, $2, $3) RETURNING id`,
		companyID(r), strings.TrimSpace(req.Title), req.Amount).Scan(&id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create bill")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) deleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid bill id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM bills WHERE id = $1 AND company_id = $2`, id, companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete bill")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "bill not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Salary handlers

func (h *Handler) listSalaries(w http.ResponseWriter, r *http.Request) {
	salaries := []domain.Salary{}
	err := h.db.Select(&salaries,
		`SELECT id, company_id, employee_name, amount, created_at FROM salaries WHERE company_id = $1 ORDER BY created_at DESC`,
		companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list salaries")
		return
	}
	respondJSON(w, http.StatusOK, salaries)
}

type salaryRequest struct {
	EmployeeName string  `json:"employee_name"`
	Amount       float64 `json:"amount"`
}

func (h *Handler) createSalary(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner") {
		return
	}
	var req salaryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.EmployeeName) == "" || req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "employee_name and a positive amount are required")
		return
	}
	var id int64
	err := h.db.QueryRowx(`INSERT INTO salaries (company_id, employee_name, amount) VALUES ($1, $2, $3) RETURNING id`,
		companyID(r), strings.TrimSpace(req.EmployeeName), req.Amount).Scan(&id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create salary")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) deleteSalary(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner") {
		return
	}
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid salary id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM salaries WHERE id = $1 AND company_id = $2`, id, companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete salary")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "salary not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
