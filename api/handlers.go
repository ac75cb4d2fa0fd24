/*
handlers.go - HTTP API handlers for the mill inventory system

PURPOSE:
  Exposes the stock ledgers, the poka lifecycle, and the production log
  via REST API. Handles HTTP request/response, JSON serialization, and
  delegates to domain logic.

ENDPOINTS:
  Ledgers (kind is yarn-stock or unfinished-goods):
    GET    /api/{kind}                  List entries, newest first
    POST   /api/{kind}                  Create entry (cascades)
    PUT    /api/{kind}/{id}             Update entry (cascades)
    DELETE /api/{kind}/{id}             Delete entry (cascades)
    GET    /api/{kind}/opening-balance  Carry-forward balance for ?date=
    POST   /api/{kind}/recalculate     Admin re-run of the cascade from ?from=

  Pokas:
    GET    /api/pokas                   List (location/status filters)
    POST   /api/pokas                   Record production batch
    PATCH  /api/pokas/actions           Bulk sell / transfer
    PATCH  /api/pokas/{id}              Correction edit
    DELETE /api/pokas/{id}              Delete unit
    GET    /api/pokas/balance           Finished meter/kg counters

  Production log:
    GET    /api/production              List (?month= prefix, ?limit= cap)
    POST   /api/production              Record a day
    GET    /api/production/{date}       Fetch a day
    PUT    /api/production/{date}       Replace a day's machines
    DELETE /api/production/{date}       Delete a day
    GET    /api/production/analysis     Aggregates for ?period= prefix

  Dashboard:
    GET    /api/dashboard/stats         Stock and activity snapshot

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator)
  3. Call domain logic
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, negative balance rejections
  - 404: Resource not found
  - 409: Duplicate date / duplicate poka number
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/weftworks/millstock/ledger"
	"github.com/weftworks/millstock/poka"
	"github.com/weftworks/millstock/production"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledgers    *ledger.Service
	Pokas      *poka.Service
	Production *production.Service

	validate *validator.Validate
	log      *logrus.Logger
}

// NewHandler creates a new handler with the given services.
func NewHandler(ledgers *ledger.Service, pokas *poka.Service, prod *production.Service, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{
		Ledgers:    ledgers,
		Pokas:      pokas,
		Production: prod,
		validate:   validator.New(),
		log:        log,
	}
}

// URL path segment -> ledger kind.
var ledgerKinds = map[string]ledger.Kind{
	"yarn-stock":       ledger.Yarn,
	"unfinished-goods": ledger.UnfinishedGoods,
}

func (h *Handler) kindFromURL(r *http.Request) (ledger.Kind, bool) {
	kind, ok := ledgerKinds[chi.URLParam(r, "kind")]
	return kind, ok
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListLedgerEntries returns all entries of the ledger, newest created first.
func (h *Handler) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromURL(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown ledger", nil)
		return
	}

	entries, err := h.Ledgers.List(r.Context(), kind)
	if err != nil {
		h.writeDomainError(w, "Failed to list ledger entries", err)
		return
	}

	dtos := make([]LedgerEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toLedgerEntryDTO(&entries[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLedgerEntry creates an entry and cascades from its date.
func (h *Handler) CreateLedgerEntry(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromURL(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown ledger", nil)
		return
	}

	var req LedgerEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	e, err := h.Ledgers.Create(r.Context(), kind, req.Input())
	if err != nil {
		h.writeDomainError(w, "Failed to create ledger entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLedgerEntryDTO(e))
}

// UpdateLedgerEntry updates an entry and cascades.
func (h *Handler) UpdateLedgerEntry(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromURL(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown ledger", nil)
		return
	}

	var req LedgerEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	e, err := h.Ledgers.Update(r.Context(), kind, chi.URLParam(r, "id"), req.Input())
	if err != nil {
		h.writeDomainError(w, "Failed to update ledger entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerEntryDTO(e))
}

// DeleteLedgerEntry deletes an entry and cascades.
func (h *Handler) DeleteLedgerEntry(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromURL(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown ledger", nil)
		return
	}

	if err := h.Ledgers.Delete(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete ledger entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOpeningBalance returns the carry-forward opening balance for ?date=.
func (h *Handler) GetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromURL(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown ledger", nil)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "Missing date parameter", nil)
		return
	}

	balance, err := h.Ledgers.OpeningBalanceBefore(r.Context(), kind, date)
	if err != nil {
		h.writeDomainError(w, "Failed to look up opening balance", err)
		return
	}

	dto := OpeningBalanceDTO{}
	if balance != nil {
		dto.Found = true
		dto.OpeningBalance = balance.InexactFloat64()
	}
	writeJSON(w, http.StatusOK, dto)
}

// RecalculateLedger re-runs the cascade from ?from=. Admin escape hatch.
func (h *Handler) RecalculateLedger(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromURL(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown ledger", nil)
		return
	}
	from := r.URL.Query().Get("from")
	if from == "" {
		writeError(w, http.StatusBadRequest, "Missing from parameter", nil)
		return
	}

	if err := h.Ledgers.Recalculate(r.Context(), kind, from); err != nil {
		h.writeDomainError(w, "Recalculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// POKA HANDLERS
// =============================================================================

// ListPokas returns units matching the query filters, newest first.
func (h *Handler) ListPokas(w http.ResponseWriter, r *http.Request) {
	var f poka.Filter
	q := r.URL.Query()
	if v := q.Get("location"); v != "" {
		loc := poka.Location(v)
		f.Location = &loc
	}
	if v := q.Get("status"); v != "" {
		st := poka.Status(v)
		f.Status = &st
	}

	units, err := h.Pokas.List(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, "Failed to list pokas", err)
		return
	}

	dtos := make([]PokaDTO, len(units))
	for i := range units {
		dtos[i] = toPokaDTO(&units[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ProducePokas records a production batch.
func (h *Handler) ProducePokas(w http.ResponseWriter, r *http.Request) {
	var req ProducePokasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	units := make([]poka.Unit, len(req.Pokas))
	for i, u := range req.Pokas {
		units[i] = poka.Unit{
			PokaNo:  u.PokaNo,
			ShadeNo: u.ShadeNo,
			Meter:   decimalFromFloat(u.Meter),
			Kg:      decimalFromFloat(u.Kg),
			Remarks: u.Remarks,
		}
	}

	if err := h.Pokas.Produce(r.Context(), units, req.Date); err != nil {
		h.writeDomainError(w, "Failed to record production batch", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"created": len(units)})
}

// PokaAction applies a bulk sell or transfer to the selected ids.
func (h *Handler) PokaAction(w http.ResponseWriter, r *http.Request) {
	var req PokaActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	var (
		updated int
		err     error
	)
	switch req.Action {
	case "sell":
		meta := poka.SaleMeta{CustomerName: req.CustomerName}
		if req.SalePrice != nil {
			price := decimalFromFloat(*req.SalePrice)
			meta.SalePrice = &price
		}
		updated, err = h.Pokas.Sell(r.Context(), req.IDs, req.Date, meta)
	case "transfer":
		updated, err = h.Pokas.Transfer(r.Context(), req.IDs, req.Date, poka.Location(req.Location))
	}
	if err != nil {
		h.writeDomainError(w, "Bulk action failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ActionResultDTO{Updated: updated})
}

// CorrectPoka applies a correction edit to one unit.
func (h *Handler) CorrectPoka(w http.ResponseWriter, r *http.Request) {
	var req CorrectPokaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Pokas.Correct(r.Context(), id, req.Correction()); err != nil {
		h.writeDomainError(w, "Correction failed", err)
		return
	}

	p, err := h.Pokas.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to fetch corrected poka", err)
		return
	}
	writeJSON(w, http.StatusOK, toPokaDTO(p))
}

// DeletePoka removes a unit and reverses its ledger contribution.
func (h *Handler) DeletePoka(w http.ResponseWriter, r *http.Request) {
	if err := h.Pokas.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete poka", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFinishedBalance returns the finished meter/kg counters.
func (h *Handler) GetFinishedBalance(w http.ResponseWriter, r *http.Request) {
	meter, kg, err := h.Pokas.FinishedTotals(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to read finished balance", err)
		return
	}
	writeJSON(w, http.StatusOK, FinishedBalanceDTO{
		FinishedMeter: meter.InexactFloat64(),
		FinishedKg:    kg.InexactFloat64(),
	})
}

// GetDashboardStats returns the dashboard snapshot.
func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Pokas.Dashboard(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(stats))
}

// =============================================================================
// PRODUCTION HANDLERS
// =============================================================================

// ListProductionEntries returns production days, newest first.
// ?month= filters by date prefix, ?limit= caps the result.
func (h *Handler) ListProductionEntries(w http.ResponseWriter, r *http.Request) {
	f := production.Filter{DatePrefix: r.URL.Query().Get("month")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		f.Limit = n
	}

	entries, err := h.Production.List(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, "Failed to list production entries", err)
		return
	}

	dtos := make([]ProductionEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = toProductionDTO(&entries[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProductionEntry records a day's production.
func (h *Handler) CreateProductionEntry(w http.ResponseWriter, r *http.Request) {
	var req ProductionEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	e, err := h.Production.Create(r.Context(), req.Entry())
	if err != nil {
		h.writeDomainError(w, "Failed to record production", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductionDTO(e))
}

// GetProductionEntry fetches the entry for a date.
func (h *Handler) GetProductionEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.Production.GetByDate(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		h.writeDomainError(w, "Failed to fetch production entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductionDTO(e))
}

// UpdateProductionEntry replaces the machines recorded for a date.
func (h *Handler) UpdateProductionEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Machines []MachineRequest `json:"machines" validate:"required,min=1,dive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	e, err := h.Production.UpdateByDate(r.Context(), chi.URLParam(r, "date"), toMachines(req.Machines))
	if err != nil {
		h.writeDomainError(w, "Failed to update production entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductionDTO(e))
}

// DeleteProductionEntry removes the entry for a date.
func (h *Handler) DeleteProductionEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.Production.GetByDate(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		h.writeDomainError(w, "Failed to delete production entry", err)
		return
	}
	if err := h.Production.Delete(r.Context(), e.ID); err != nil {
		h.writeDomainError(w, "Failed to delete production entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProductionAnalysis aggregates entries whose date starts with ?period=.
func (h *Handler) GetProductionAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.Production.Analyze(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.writeDomainError(w, "Failed to analyze production", err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalysisDTO(a))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, poka.ErrPokaNotFound),
		errors.Is(err, production.ErrEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateEntry),
		errors.Is(err, poka.ErrDuplicatePokaNumber),
		errors.Is(err, production.ErrEntryExists):
		status = http.StatusConflict
	case ledger.IsClientError(err),
		errors.Is(err, poka.ErrNoPokasSelected),
		errors.Is(err, poka.ErrMeasurementLocked),
		errors.Is(err, poka.ErrInvalidUnit),
		errors.Is(err, production.ErrMissingShiftData),
		errors.Is(err, production.ErrInvalidDowntime):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error(msg)
	}
	writeError(w, status, msg, err)
}
