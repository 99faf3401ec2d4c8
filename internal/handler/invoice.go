package handler

import (
	"net/http"
	"strconv"

	"github.com/msomdec/mtaabiz/internal/domain"
	"github.com/msomdec/mtaabiz/internal/service"
)

// InvoiceHandler serves the caller's invoices.
type InvoiceHandler struct {
	invoices *service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// HandleList returns the caller's invoices.
// GET /api/invoices
func (h *InvoiceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	invoices, err := h.invoices.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "list invoices", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTOs(invoices))
}

// HandleCreate creates an invoice owned by the caller, subject to the
// free-plan quota.
// POST /api/invoices
func (h *InvoiceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	var req invoiceRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, "decode invoice", err)
		return
	}

	inv, err := h.invoices.Create(r.Context(), user.ID, req.toInput())
	if err != nil {
		writeServiceError(w, r, "create invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceDTO(inv))
}

// HandleGet returns one invoice.
// GET /api/invoices/{id}
func (h *InvoiceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, "parse invoice id", err)
		return
	}

	inv, err := h.invoices.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, "get invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

// HandleUpdate replaces (PUT) or patches (PATCH) an invoice.
// PUT|PATCH /api/invoices/{id}
func (h *InvoiceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, "parse invoice id", err)
		return
	}
	var req invoiceRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, "decode invoice", err)
		return
	}

	inv, err := h.invoices.Update(r.Context(), user.ID, id, req.toInput(), r.Method == http.MethodPatch)
	if err != nil {
		writeServiceError(w, r, "update invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

// HandleDelete removes an invoice.
// DELETE /api/invoices/{id}
func (h *InvoiceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, "parse invoice id", err)
		return
	}

	if err := h.invoices.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, "delete invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} wildcard. A malformed id cannot name an owned row,
// so it is reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}
