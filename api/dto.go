/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the internal
  domain model from the external contract. DTOs are pure data carriers;
  validation happens in handlers and in the engine.

SEE ALSO:
  - handlers.go: Uses these types
  - charging/types.go: Domain types these map onto
*/
package api

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
	"github.com/batiflow/cost-engine/overhead"
	"github.com/batiflow/cost-engine/personnel"
	"github.com/batiflow/cost-engine/transport"
)

// =============================================================================
// CHARGES
// =============================================================================

// ChargeRequest is the create/update body for a charge. For personnel
// charges the Amount field is ignored unless normalization cannot run;
// the server-computed total is authoritative.
type ChargeRequest struct {
	SiteID      charging.SiteID                `json:"siteId"`
	Category    charging.Category              `json:"category"`
	Name        string                         `json:"name"`
	Amount      decimal.Decimal                `json:"amount"`
	Description string                         `json:"description,omitempty"`
	Personnel   []charging.PersonnelAssignment `json:"personnel,omitempty"`
}

// ChargeDTO mirrors charging.Charge on the wire.
type ChargeDTO struct {
	ID          charging.ChargeID              `json:"id"`
	SiteID      charging.SiteID                `json:"siteId"`
	Category    charging.Category              `json:"category"`
	Name        string                         `json:"name"`
	Amount      decimal.Decimal                `json:"amount"`
	Description string                         `json:"description,omitempty"`
	Personnel   []charging.PersonnelAssignment `json:"personnel,omitempty"`
	FeeDate     string                         `json:"feeDate,omitempty"`
	FeeKind     charging.FeeKind               `json:"feeKind,omitempty"`
	CreatedAt   string                         `json:"createdAt"`
}

// SiteTotalsDTO reports per-category and overall totals for a job site.
type SiteTotalsDTO struct {
	SiteID charging.SiteID                       `json:"siteId"`
	Totals map[charging.Category]decimal.Decimal `json:"totals"`
	Total  decimal.Decimal                       `json:"total"`
}

// =============================================================================
// BILLABILITY PREVIEW
// =============================================================================

type PreviewEntry struct {
	WorkerID charging.WorkerID `json:"workerId"`
	Dates    []string          `json:"dates"`
}

type PreviewRequest struct {
	Entries           []PreviewEntry    `json:"entries"`
	ExcludingChargeID charging.ChargeID `json:"excludingChargeId,omitempty"`
}

// PreviewResult reports billability for one (worker, date) pair.
type PreviewResult struct {
	WorkerID charging.WorkerID `json:"workerId"`
	Date     string            `json:"date"`
	Billable bool              `json:"billable"`
}

// =============================================================================
// TRANSPORT FEES
// =============================================================================

type TransportApplyRequest struct {
	Amount   decimal.Decimal   `json:"amount,omitempty"`
	WorkerID charging.WorkerID `json:"workerId,omitempty"`
}

// TransportApplyResponse mirrors transport.Result.
type TransportApplyResponse struct {
	CreatedCount int                     `json:"createdCount"`
	SkippedCount int                     `json:"skippedCount"`
	Amount       decimal.Decimal         `json:"amount"`
	Sites        []charging.SiteID       `json:"sites,omitempty"`
	Failures     []transport.SiteFailure `json:"failures,omitempty"`
}

// =============================================================================
// OVERHEAD
// =============================================================================

// OverheadApplyResponse mirrors overhead.Result.
type OverheadApplyResponse struct {
	CreatedCount int                    `json:"createdCount"`
	SkippedCount int                    `json:"skippedCount"`
	DailyAmount  decimal.Decimal        `json:"dailyAmount"`
	Sites        []charging.SiteID      `json:"sites,omitempty"`
	Failures     []overhead.SiteFailure `json:"failures,omitempty"`
}

// =============================================================================
// SITES / WORKERS
// =============================================================================

type JobSiteRequest struct {
	Name      string              `json:"name"`
	Status    charging.SiteStatus `json:"status,omitempty"`
	StartDate string              `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate   string              `json:"endDate,omitempty"`   // YYYY-MM-DD
}

type JobSiteDTO struct {
	ID        charging.SiteID     `json:"id"`
	Name      string              `json:"name"`
	Status    charging.SiteStatus `json:"status"`
	StartDate string              `json:"startDate,omitempty"`
	EndDate   string              `json:"endDate,omitempty"`
}

type WorkerRequest struct {
	Name       string          `json:"name"`
	HourlyRate decimal.Decimal `json:"hourlyRate"`
	HasVehicle bool            `json:"hasVehicle"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toChargeDTO(c *charging.Charge) ChargeDTO {
	return ChargeDTO{
		ID:          c.ID,
		SiteID:      c.SiteID,
		Category:    c.Category,
		Name:        c.Name,
		Amount:      c.Amount,
		Description: c.Description,
		Personnel:   c.Personnel,
		FeeDate:     c.FeeDate,
		FeeKind:     c.FeeKind,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func toJobSiteDTO(s *charging.JobSite) JobSiteDTO {
	dto := JobSiteDTO{ID: s.ID, Name: s.Name, Status: s.Status}
	if s.StartDate != nil {
		dto.StartDate = charging.FormatDay(*s.StartDate)
	}
	if s.EndDate != nil {
		dto.EndDate = charging.FormatDay(*s.EndDate)
	}
	return dto
}

func toPreviewResults(verdicts map[personnel.DayKey]bool) []PreviewResult {
	results := make([]PreviewResult, 0, len(verdicts))
	for k, billable := range verdicts {
		results = append(results, PreviewResult{WorkerID: k.Worker, Date: k.Date, Billable: billable})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].WorkerID != results[j].WorkerID {
			return results[i].WorkerID < results[j].WorkerID
		}
		return results[i].Date < results[j].Date
	})
	return results
}
