package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"optipos/m/domain"
)

// Category handlers

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories := []domain.Category{}
	err := h.db.Select(&categories,
		`SELECT id, company_id, name, created_at FROM categories WHERE company_id = $1 ORDER BY name`,
		companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	var id int64
	err := h.db.QueryRowx(`INSERT INTO categories (company_id, name) VALUES ($1, $2) RETURNING id`,
		companyID(r), strings.TrimSpace(req.Name)).Scan(&id)
	if err != nil {
		respondError(w, http.StatusConflict, "category already exists")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	res, err := h.db.Exec(`UPDATE categories SET name = $1 WHERE id = $2 AND company_id = $3`,
		strings.TrimSpace(req.Name), id, companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update category")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var inUse int64
	if err := h.db.Get(&inUse, `SELECT COUNT(*) FROM inventory_items WHERE category_id = $1 AND company_id = $2`,
		id, companyID(r)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete category")
		return
	}
	if inUse > 0 {
		respondError(w, http.StatusBadRequest, "category still has inventory items")
		return
	}
	res, err := h.db.Exec(`DELETE FROM categories WHERE id = $1 AND company_id = $2`, id, companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete category")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Inventory handlers

type inventoryRow struct {
	domain.InventoryItem
	CategoryName string `db:"category_name" json:"category_name"`
}

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	items := []inventoryRow{}
	err := h.db.Select(&items,
		`SELECT i.id, i.company_id, i.category_id, i.name, i.unit_price, i.total_stock,
            i.created_at, i.updated_at, c.name AS category_name
         FROM inventory_items i
         JOIN categories c ON c.id = i.category_id
         WHERE i.company_id = $1
         ORDER BY c.name, i.name`, companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list inventory")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) searchInventory(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	args := []any{companyID(r)}
	sqlQuery := `SELECT i.id, i.company_id, i.category_id, i.name, i.unit_price, i.total_stock,
            i.created_at, i.updated_at, c.name AS category_name
         FROM inventory_items i
         JOIN categories c ON c.id = i.category_id
         WHERE i.company_id = $1`
	if query != "" {
		args = append(args, "%"+strings.ToLower(query)+"%")
		sqlQuery += " AND lower(i.name) LIKE $2"
	}
	sqlQuery += " ORDER BY i.name LIMIT 25"

	items := []inventoryRow{}
	if err := h.db.Select(&items, sqlQuery, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to search inventory")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

type inventoryRequest struct {
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	TotalStock int64   `json:"total_stock"`
}

func (h *Handler) validInventoryCategory(w http.ResponseWriter, r *http.Request, categoryID int64) bool {
	var id int64
	err := h.db.Get(&id, `SELECT id FROM categories WHERE id = $1 AND company_id = $2`, categoryID, companyID(r))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusBadRequest, "category not found")
		return false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to verify category")
		return false
	}
	return true
}

func (h *Handler) createInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CategoryID == 0 || strings.TrimSpace(req.Name) == "" || req.UnitPrice < 0 || req.TotalStock < 0 {
		respondError(w, http.StatusBadRequest, "category_id, name, unit_price and total_stock are required")
		return
	}
	if !h.validInventoryCategory(w, r, req.CategoryID) {
		return
	}
	var id int64
	err := h.db.QueryRowx(
		`INSERT INTO inventory_items (company_id, category_id, name, unit_price, total_stock)
         VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		companyID(r), req.CategoryID, strings.TrimSpace(req.Name), req.UnitPrice, req.TotalStock).Scan(&id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to add inventory item")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) updateInventory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CategoryID == 0 || strings.TrimSpace(req.Name) == "" || req.UnitPrice < 0 || req.TotalStock < 0 {
		respondError(w, http.StatusBadRequest, "category_id, name, unit_price and total_stock are required")
		return
	}
	if !h.validInventoryCategory(w, r, req.CategoryID) {
		return
	}
	res, err := h.db.Exec(
		`UPDATE inventory_items SET category_id = $1, name = $2, unit_price = $3, total_stock = $4,
            updated_at = CURRENT_TIMESTAMP
         WHERE id = $5 AND company_id = $6`,
		req.CategoryID, strings.TrimSpace(req.Name), req.UnitPrice, req.TotalStock, id, companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update inventory item")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	var payload struct {
		TotalStock int64 `json:"total_stock"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.TotalStock < 0 {
		respondError(w, http.StatusBadRequest, "total_stock must not be negative")
		return
	}
	res, err := h.db.Exec(
		`UPDATE inventory_items SET total_stock = $1, updated_at = CURRENT_TIMESTAMP
         WHERE id = $2 AND company_id = $3`, payload.TotalStock, id, companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update stock")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "stock updated"})
}

func (h *Handler) deleteInventory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM inventory_items WHERE id = $1 AND company_id = $2`, id, companyID(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete inventory item")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
