package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"optipos/m/domain"
)

type registerRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	CompanyName    string `json:"company_name,omitempty"`
	CompanyAddress string `json:"company_address,omitempty"`
	CompanyID      int64  `json:"company_id,omitempty"`
}

type authResponse struct {
	Token   string          `json:"token"`
	User    domain.User     `json:"user"`
	Company *domain.Company `json:"company,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		respondError(w, http.StatusBadRequest, "username, email, password and role are required")
		return
	}

	if req.Role != "owner" && req.Role != "employee" {
		respondError(w, http.StatusBadRequest, "role must be owner or employee")
		return
	}

	if req.Role == "owner" && strings.TrimSpace(req.CompanyName) == "" {
		respondError(w, http.StatusBadRequest, "company_name is required for owners")
		return
	}
	if req.Role == "employee" && req.CompanyID == 0 {
		respondError(w, http.StatusBadRequest, "company_id is required for employees")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	if req.Role == "employee" {
		var exists int64
		if err := h.db.Get(&exists, `SELECT id FROM companies WHERE id = $1`, req.CompanyID); err != nil {
			respondError(w, http.StatusBadRequest, "company not found")
			return
		}
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to start registration")
		return
	}

	var userID int64
	err = tx.QueryRowx(`INSERT INTO users (username, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		req.Username, strings.ToLower(req.Email), hashed, req.Role).Scan(&userID)
	if err != nil {
		_ = tx.Rollback()
		respondError(w, http.StatusConflict, "email already exists")
		return
	}

	companyID := req.CompanyID
	var company *domain.Company
	if req.Role == "owner" {
		var (
			newCompanyID int64
			createdAt    string
		)
		err = tx.QueryRowx(`INSERT INTO companies (name, address, owner_id) VALUES ($1, $2, $3) RETURNING id, created_at`,
			req.CompanyName, req.CompanyAddress, userID).Scan(&newCompanyID, &createdAt)
		if err != nil {
			_ = tx.Rollback()
			respondError(w, http.StatusInternalServerError, "unable to create company for owner")
			return
		}
		companyID = newCompanyID
		company = &domain.Company{
			ID:        newCompanyID,
			Name:      req.CompanyName,
			Address:   req.CompanyAddress,
			OwnerID:   &userID,
			CreatedAt: createdAt,
		}
	}

	if _, err := tx.Exec(`UPDATE users SET company_id = $1 WHERE id = $2`, companyID, userID); err != nil {
		_ = tx.Rollback()
		respondError(w, http.StatusInternalServerError, "unable to complete registration")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to complete registration")
		return
	}

	token, err := h.generateToken(userID, companyID, req.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User: domain.User{
			ID:        userID,
			Username:  req.Username,
			Email:     strings.ToLower(req.Email),
			Role:      req.Role,
			CompanyID: &companyID,
		},
		Company: company,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var user domain.User
	err := h.db.Get(&user, `SELECT id, username, email, password, role, company_id FROM users WHERE email = $1`,
		strings.ToLower(req.Email))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	var company int64
	if user.CompanyID != nil {
		company = *user.CompanyID
	}
	token, err := h.generateToken(user.ID, company, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	user.Password = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}
	if _, err := h.db.Exec(`UPDATE users SET password = $1 WHERE id = $2`, hashed, userID(r)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// Company handlers

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	var company domain.Company
	err := h.db.Get(&company, `SELECT id, name, address, owner_id, created_at FROM companies WHERE id = $1`, companyID(r))
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load company")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

type companyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "owner") {
		return
	}
	var req companyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, err := h.db.Exec(`UPDATE companies SET name = $1, address = $2 WHERE id = $3`,
		req.Name, req.Address, companyID(r)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update company")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
