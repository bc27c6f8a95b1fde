/*
handlers.go - HTTP handlers for the site-cost engine

PURPOSE:
  Exposes the engine via REST. Handlers parse requests, delegate to the
  personnel engine / transport allocator / stores, and serialize responses.

ENDPOINTS:
  Charges:
    GET    /api/charges/site/{siteID}         Charges of a site
    GET    /api/charges/site/{siteID}/totals  Per-category totals
    POST   /api/charges                       Create (personnel goes through the engine)
    PUT    /api/charges/{id}                  Update (personnel re-normalized)
    DELETE /api/charges/{id}                  Delete (releases work-day ownership)
    POST   /api/charges/personnel/preview     Billability preview

  Transport:
    POST   /api/transport-fees/{date}         Apply fees for a date
    GET    /api/transport-config              Read config
    PUT    /api/transport-config              Replace config

  Overhead:
    POST   /api/overhead-charges/{date}       Distribute overhead for a date
    GET    /api/overhead-registry             Read the monthly cost registry
    PUT    /api/overhead-registry             Replace the registry

  Sites / workers: minimal CRUD the engine reads.

ERROR HANDLING:
  charging.ErrValidation -> 400, charging.ErrNotFound -> 404,
  charging.ErrDuplicateAllocatedFee -> 409, everything else -> 500.

SECURITY NOTE:
  No authentication; request auth is outside this engine's scope.

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router wiring
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
	"github.com/batiflow/cost-engine/overhead"
	"github.com/batiflow/cost-engine/personnel"
	"github.com/batiflow/cost-engine/transport"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Stores bundles the persistence interfaces the handlers need. The SQLite
// store satisfies all of them with one value.
type Stores interface {
	charging.ChargeStore
	charging.JobSiteStore
	charging.WorkerStore
	charging.TransportConfigStore
	charging.OverheadRegistryStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       Stores
	Engine      *personnel.Engine
	Allocator   *transport.Allocator
	Distributor *overhead.Distributor
}

// NewHandler wires the engine, allocator and distributor over the given store.
func NewHandler(store Stores) *Handler {
	return &Handler{
		Store:       store,
		Engine:      personnel.NewEngine(store, store, store),
		Allocator:   transport.NewAllocator(store, store, store),
		Distributor: overhead.NewDistributor(store, store, store),
	}
}

// =============================================================================
// CHARGE HANDLERS
// =============================================================================

// ListSiteCharges returns all charges of a job site.
func (h *Handler) ListSiteCharges(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(w, r, "siteID")
	if !ok {
		return
	}

	charges, err := h.Store.ListCharges(r.Context(), charging.SiteID(siteID))
	if err != nil {
		writeDomainError(w, "Failed to list charges", err)
		return
	}

	dtos := make([]ChargeDTO, len(charges))
	for i := range charges {
		dtos[i] = toChargeDTO(&charges[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSiteTotals sums charge amounts per category for a site.
func (h *Handler) GetSiteTotals(w http.ResponseWriter, r *http.Request) {
	siteID, ok := pathID(w, r, "siteID")
	if !ok {
		return
	}

	totals, err := h.Store.SiteTotals(r.Context(), charging.SiteID(siteID))
	if err != nil {
		writeDomainError(w, "Failed to compute totals", err)
		return
	}

	overall := decimal.Zero
	for _, amount := range totals {
		overall = overall.Add(amount)
	}
	writeJSON(w, http.StatusOK, SiteTotalsDTO{
		SiteID: charging.SiteID(siteID),
		Totals: totals,
		Total:  overall,
	})
}

// CreateCharge creates a charge. Personnel charges are normalized and priced
// by the engine; the server-computed amount is persisted, not the submitted one.
func (h *Handler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	charge, err := h.buildCharge(r, &req, 0)
	if err != nil {
		writeDomainError(w, "Failed to prepare charge", err)
		return
	}

	created, err := h.Store.CreateCharge(r.Context(), charge)
	if err != nil {
		writeDomainError(w, "Failed to create charge", err)
		return
	}
	writeJSON(w, http.StatusCreated, toChargeDTO(created))
}

// UpdateCharge replaces a charge. The edited charge keeps the work-day
// ownership its stored copy already holds.
func (h *Handler) UpdateCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	charge, err := h.buildCharge(r, &req, charging.ChargeID(id))
	if err != nil {
		writeDomainError(w, "Failed to prepare charge", err)
		return
	}

	updated, err := h.Store.UpdateCharge(r.Context(), charging.ChargeID(id), charge)
	if err != nil {
		writeDomainError(w, "Failed to update charge", err)
		return
	}
	writeJSON(w, http.StatusOK, toChargeDTO(updated))
}

// DeleteCharge removes a charge, releasing any work-day ownership it held.
func (h *Handler) DeleteCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Store.DeleteCharge(r.Context(), charging.ChargeID(id)); err != nil {
		writeDomainError(w, "Failed to delete charge", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// buildCharge validates the request and, for personnel charges, runs it
// through the engine. editingID is zero on create.
func (h *Handler) buildCharge(r *http.Request, req *ChargeRequest, editingID charging.ChargeID) (*charging.Charge, error) {
	if !charging.ValidCategory(req.Category) {
		return nil, charging.NewValidationError("category", "unknown charge category")
	}
	if req.SiteID == 0 {
		return nil, charging.NewValidationError("siteId", "missing job site")
	}

	charge := &charging.Charge{
		SiteID:      req.SiteID,
		Category:    req.Category,
		Name:        req.Name,
		Amount:      req.Amount,
		Description: req.Description,
	}

	if req.Category == charging.CategoryPersonnel {
		normalized, total, err := h.Engine.NormalizeAndPrice(r.Context(), req.SiteID, req.Personnel, editingID)
		if err != nil {
			return nil, err
		}
		charge.Personnel = normalized
		charge.Amount = total
	} else if charge.Amount.IsNegative() {
		return nil, charging.NewValidationError("amount", "must not be negative")
	}
	return charge, nil
}

// PreviewBillable is the read-only billability preview.
func (h *Handler) PreviewBillable(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	queries := make([]personnel.BillableQuery, len(req.Entries))
	for i, e := range req.Entries {
		queries[i] = personnel.BillableQuery{WorkerID: e.WorkerID, Dates: e.Dates}
	}

	verdicts, err := h.Engine.EvaluateBillable(r.Context(), queries, req.ExcludingChargeID)
	if err != nil {
		writeDomainError(w, "Failed to evaluate billability", err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewResults(verdicts))
}

// =============================================================================
// TRANSPORT HANDLERS
// =============================================================================

// ApplyTransportFees runs the allocator for the date in the path.
func (h *Handler) ApplyTransportFees(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	var req TransportApplyRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	result, err := h.Allocator.Apply(r.Context(), date, req.Amount, req.WorkerID)
	if err != nil {
		writeDomainError(w, "Transport fee allocation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, TransportApplyResponse{
		CreatedCount: result.Created,
		SkippedCount: result.Skipped,
		Amount:       result.Amount,
		Sites:        result.Sites,
		Failures:     result.Failures,
	})
}

// GetTransportConfig returns the singleton fee configuration.
func (h *Handler) GetTransportConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.GetTransportConfig(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to load transport config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PutTransportConfig replaces the singleton fee configuration.
func (h *Handler) PutTransportConfig(w http.ResponseWriter, r *http.Request) {
	var cfg charging.TransportConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Store.PutTransportConfig(r.Context(), &cfg); err != nil {
		writeDomainError(w, "Failed to save transport config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// =============================================================================
// OVERHEAD HANDLERS
// =============================================================================

// ApplyOverheadCharges runs the distributor for the date in the path.
func (h *Handler) ApplyOverheadCharges(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	result, err := h.Distributor.Apply(r.Context(), date)
	if err != nil {
		writeDomainError(w, "Overhead distribution failed", err)
		return
	}
	writeJSON(w, http.StatusOK, OverheadApplyResponse{
		CreatedCount: result.Created,
		SkippedCount: result.Skipped,
		DailyAmount:  result.DailyAmount,
		Sites:        result.Sites,
		Failures:     result.Failures,
	})
}

// GetOverheadRegistry returns the singleton monthly cost registry.
func (h *Handler) GetOverheadRegistry(w http.ResponseWriter, r *http.Request) {
	reg, err := h.Store.GetOverheadRegistry(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to load overhead registry", err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// PutOverheadRegistry replaces the singleton monthly cost registry.
func (h *Handler) PutOverheadRegistry(w http.ResponseWriter, r *http.Request) {
	var reg charging.OverheadRegistry
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if reg.MonthlyTotal().IsNegative() {
		writeError(w, http.StatusBadRequest, "Overhead total must not be negative", nil)
		return
	}
	if err := h.Store.PutOverheadRegistry(r.Context(), &reg); err != nil {
		writeDomainError(w, "Failed to save overhead registry", err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// =============================================================================
// JOB SITE HANDLERS
// =============================================================================

func (h *Handler) ListJobSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.Store.ListJobSites(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list job sites", err)
		return
	}
	dtos := make([]JobSiteDTO, len(sites))
	for i := range sites {
		dtos[i] = toJobSiteDTO(&sites[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetJobSite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	site, err := h.Store.GetJobSite(r.Context(), charging.SiteID(id))
	if err != nil {
		writeDomainError(w, "Failed to get job site", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobSiteDTO(site))
}

func (h *Handler) CreateJobSite(w http.ResponseWriter, r *http.Request) {
	var req JobSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing site name", nil)
		return
	}

	site := &charging.JobSite{Name: req.Name, Status: req.Status}
	if req.StartDate != "" {
		d, ok := charging.ParseDay(req.StartDate)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid startDate (use YYYY-MM-DD)", nil)
			return
		}
		site.StartDate = &d
	}
	if req.EndDate != "" {
		d, ok := charging.ParseDay(req.EndDate)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid endDate (use YYYY-MM-DD)", nil)
			return
		}
		site.EndDate = &d
	}

	created, err := h.Store.CreateJobSite(r.Context(), site)
	if err != nil {
		writeDomainError(w, "Failed to create job site", err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobSiteDTO(created))
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list workers", err)
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req WorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing worker name", nil)
		return
	}

	created, err := h.Store.CreateWorker(r.Context(), &charging.Worker{
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
		HasVehicle: req.HasVehicle,
	})
	if err != nil {
		writeDomainError(w, "Failed to create worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// =============================================================================
// HELPERS
// =============================================================================

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+name, err)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case charging.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case charging.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case charging.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
