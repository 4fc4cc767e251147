package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"optipos/m/domain"
)

type saleRequest struct {
	Total float64 `json:"total"`
	Frame string  `json:"frame"`
	Lens  string  `json:"lens"`
}

// createSale records a sale referencing inventory by item name and
// decrements live stock for each resolved leg inside one transaction.
// Unmatched names are kept on the sale but leave stock untouched.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Total <= 0 {
		respondError(w, http.StatusBadRequest, "total must be greater than zero")
		return
	}
	if strings.TrimSpace(req.Frame) == "" && strings.TrimSpace(req.Lens) == "" {
		respondError(w, http.StatusBadRequest, "at least one of frame or lens is required")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start sale")
		return
	}
	defer tx.Rollback()

	uid := userID(r)
	var saleID int64
	err = tx.QueryRowx(
		`INSERT INTO sales (company_id, user_id, total, frame, lens) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		companyID(r), uid, req.Total, req.Frame, req.Lens).Scan(&saleID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create sale")
		return
	}

	for _, name := range []string{req.Frame, req.Lens} {
		if name == "" {
			continue
		}
		var itemID int64
		err := tx.Get(&itemID, `SELECT id FROM inventory_items WHERE company_id = $1 AND name = $2`,
			companyID(r), name)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to resolve sale item")
			return
		}
		_, err = tx.Exec(
			`UPDATE inventory_items SET total_stock = total_stock - 1, updated_at = CURRENT_TIMESTAMP
             WHERE id = $1 AND total_stock > 0`, itemID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to update stock")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to finalize sale")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"sale_id": saleID,
		"total":   req.Total,
		"frame":   req.Frame,
		"lens":    req.Lens,
	})
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	var (
		args    []any
		clauses []string
	)
	args = append(args, companyID(r))
	clauses = append(clauses, "company_id = $1")

	startDate := strings.TrimSpace(r.URL.Query().Get("start_date"))
	if startDate != "" {
		if _, err := time.Parse("2006-01-02", startDate); err != nil {
			respondError(w, http.StatusBadRequest, "start_date must be in YYYY-MM-DD format")
			return
		}
		args = append(args, startDate+" 00:00:00")
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	endDate := strings.TrimSpace(r.URL.Query().Get("end_date"))
	if endDate != "" {
		if _, err := time.Parse("2006-01-02", endDate); err != nil {
			respondError(w, http.StatusBadRequest, "end_date must be in YYYY-MM-DD format")
			return
		}
		args = append(args, endDate+" 23:59:59.999")
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT id, company_id, user_id, total, frame, lens, created_at FROM sales WHERE ` +
		strings.Join(clauses, " AND ") + " ORDER BY created_at DESC"

	sales := []domain.Sale{}
	if err := h.db.Select(&sales, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list sales")
		return
	}
	respondJSON(w, http.StatusOK, sales)
}
