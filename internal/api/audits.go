package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"optipos/m/internal/audit"
)

func (h *Handler) listAudits(w http.ResponseWriter, r *http.Request) {
	opts := audit.ListOptions{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		Period:    r.URL.Query().Get("period"),
	}
	result, err := h.audits.List(r.Context(), companyID(r), opts)
	if err != nil {
		h.auditError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) createAudit(w http.ResponseWriter, r *http.Request) {
	var in audit.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.audits.Create(r.Context(), companyID(r), in)
	if err != nil {
		h.auditError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) getAudit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid audit id")
		return
	}
	a, err := h.audits.Get(r.Context(), companyID(r), id)
	if err != nil {
		h.auditError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *Handler) updateAudit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid audit id")
		return
	}
	var in audit.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.audits.Update(r.Context(), companyID(r), id, in)
	if err != nil {
		h.auditError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteAudit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid audit id")
		return
	}
	if err := h.audits.Delete(r.Context(), companyID(r), id); err != nil {
		h.auditError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) auditInventory(w http.ResponseWriter, r *http.Request) {
	options, err := h.audits.ListInventory(r.Context(), companyID(r))
	if err != nil {
		h.auditError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, options)
}

func (h *Handler) auditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, audit.ErrAuditNotFound), errors.Is(err, audit.ErrItemNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, audit.ErrNoItems), errors.Is(err, audit.ErrMissingDates), errors.Is(err, audit.ErrInvalidDate):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("audit operation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "audit operation failed")
	}
}
