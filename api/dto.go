/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

QUANTITIES:
  Quantities cross the wire as JSON numbers (float64) and are converted
  to decimals at the handler boundary. Internals never compute on floats.

VALIDATION:
  Request types carry go-playground/validator tags; handlers run the
  validator before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/weftworks/millstock/ledger"
	"github.com/weftworks/millstock/poka"
	"github.com/weftworks/millstock/production"
)

func decimalFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// =============================================================================
// LEDGER TYPES
// =============================================================================

// LedgerEntryRequest is the request to create or update a ledger entry.
// Outflows is keyed by the ledger's flow names, e.g. "consumption" and
// "wastage" for yarn, "finished_meter" and "finished_kg" for unfinished
// goods. Unknown keys are rejected.
type LedgerEntryRequest struct {
	Date           string             `json:"date" validate:"required"`
	OpeningBalance *float64           `json:"opening_balance,omitempty" validate:"omitempty,gte=0"`
	Inflow         float64            `json:"inflow" validate:"gte=0"`
	Outflows       map[string]float64 `json:"outflows" validate:"dive,gte=0"`
}

// Input converts the request into domain input.
func (r LedgerEntryRequest) Input() ledger.Input {
	in := ledger.Input{
		Date:     r.Date,
		Inflow:   decimal.NewFromFloat(r.Inflow),
		Outflows: make(map[string]decimal.Decimal, len(r.Outflows)),
	}
	if r.OpeningBalance != nil {
		ob := decimal.NewFromFloat(*r.OpeningBalance)
		in.OpeningBalance = &ob
	}
	for name, qty := range r.Outflows {
		in.Outflows[name] = decimal.NewFromFloat(qty)
	}
	return in
}

// LedgerEntryDTO represents a ledger entry in API responses.
type LedgerEntryDTO struct {
	ID             string             `json:"id"`
	Date           string             `json:"date"`
	OpeningBalance float64            `json:"opening_balance"`
	Inflow         float64            `json:"inflow"`
	Total          float64            `json:"total"`
	Outflows       map[string]float64 `json:"outflows"`
	Balance        float64            `json:"balance"`
	CreatedAt      string             `json:"created_at,omitempty"`
	UpdatedAt      string             `json:"updated_at,omitempty"`
}

func toLedgerEntryDTO(e *ledger.Entry) LedgerEntryDTO {
	outflows := make(map[string]float64, len(e.Outflows))
	for _, f := range e.Outflows {
		outflows[f.Name] = f.Qty.InexactFloat64()
	}
	return LedgerEntryDTO{
		ID:             e.ID,
		Date:           e.Date,
		OpeningBalance: e.OpeningBalance.InexactFloat64(),
		Inflow:         e.Inflow.InexactFloat64(),
		Total:          e.Total.InexactFloat64(),
		Outflows:       outflows,
		Balance:        e.Balance.InexactFloat64(),
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
}

// OpeningBalanceDTO is the carry-forward opening balance for a date.
// Found is false when no earlier entry exists and the client must supply
// the opening balance itself.
type OpeningBalanceDTO struct {
	OpeningBalance float64 `json:"opening_balance"`
	Found          bool    `json:"found"`
}

// =============================================================================
// POKA TYPES
// =============================================================================

// PokaUnitRequest is one unit of a production batch.
type PokaUnitRequest struct {
	PokaNo  string  `json:"poka_no" validate:"required"`
	ShadeNo string  `json:"shade_no" validate:"required"`
	Meter   float64 `json:"meter" validate:"gt=0"`
	Kg      float64 `json:"kg" validate:"gt=0"`
	Remarks string  `json:"remarks"`
}

// ProducePokasRequest is the request to record a production batch.
type ProducePokasRequest struct {
	Date  string            `json:"date" validate:"required"`
	Pokas []PokaUnitRequest `json:"pokas" validate:"required,min=1,dive"`
}

// PokaActionRequest is the bulk sell/transfer request.
type PokaActionRequest struct {
	Action       string   `json:"action" validate:"required,oneof=sell transfer"`
	IDs          []string `json:"ids" validate:"required,min=1"`
	Date         string   `json:"date" validate:"required"`
	Location     string   `json:"location,omitempty"` // transfer target, defaults to warehouse
	CustomerName string   `json:"customer_name,omitempty"`
	SalePrice    *float64 `json:"sale_price,omitempty" validate:"omitempty,gte=0"`
}

// CorrectPokaRequest is a partial per-unit edit. Absent fields are left
// untouched.
type CorrectPokaRequest struct {
	PokaNo   *string  `json:"poka_no,omitempty"`
	ShadeNo  *string  `json:"shade_no,omitempty"`
	Meter    *float64 `json:"meter,omitempty" validate:"omitempty,gt=0"`
	Kg       *float64 `json:"kg,omitempty" validate:"omitempty,gt=0"`
	Status   *string  `json:"status,omitempty" validate:"omitempty,oneof=available sold"`
	Location *string  `json:"location,omitempty" validate:"omitempty,oneof=mill warehouse"`
	Remarks  *string  `json:"remarks,omitempty"`
}

// Correction converts the request into a domain correction.
func (r CorrectPokaRequest) Correction() poka.Correction {
	c := poka.Correction{
		PokaNo:  r.PokaNo,
		ShadeNo: r.ShadeNo,
		Remarks: r.Remarks,
	}
	if r.Meter != nil {
		m := decimal.NewFromFloat(*r.Meter)
		c.Meter = &m
	}
	if r.Kg != nil {
		kg := decimal.NewFromFloat(*r.Kg)
		c.Kg = &kg
	}
	if r.Status != nil {
		st := poka.Status(*r.Status)
		c.Status = &st
	}
	if r.Location != nil {
		loc := poka.Location(*r.Location)
		c.Location = &loc
	}
	return c
}

// PokaDTO represents a finished unit in API responses.
type PokaDTO struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	PokaNo          string   `json:"poka_no"`
	ShadeNo         string   `json:"shade_no"`
	Meter           float64  `json:"meter"`
	Kg              float64  `json:"kg"`
	Location        string   `json:"location"`
	Status          string   `json:"status"`
	SaleDate        string   `json:"sale_date,omitempty"`
	TransferDate    string   `json:"transfer_date,omitempty"`
	TransferredFrom string   `json:"transferred_from,omitempty"`
	SalePrice       *float64 `json:"sale_price,omitempty"`
	CustomerName    string   `json:"customer_name,omitempty"`
	Remarks         string   `json:"remarks,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

func toPokaDTO(p *poka.Poka) PokaDTO {
	dto := PokaDTO{
		ID:              p.ID,
		Date:            p.Date,
		PokaNo:          p.PokaNo,
		ShadeNo:         p.ShadeNo,
		Meter:           p.Meter.InexactFloat64(),
		Kg:              p.Kg.InexactFloat64(),
		Location:        string(p.Location),
		Status:          string(p.Status),
		SaleDate:        p.SaleDate,
		TransferDate:    p.TransferDate,
		TransferredFrom: string(p.TransferredFrom),
		CustomerName:    p.CustomerName,
		Remarks:         p.Remarks,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
	if p.SalePrice != nil {
		price := p.SalePrice.InexactFloat64()
		dto.SalePrice = &price
	}
	return dto
}

// ActionResultDTO reports how many units a bulk action touched.
type ActionResultDTO struct {
	Updated int `json:"updated"`
}

// FinishedBalanceDTO is the current finished meter/kg counters of the
// unfinished-goods ledger.
type FinishedBalanceDTO struct {
	FinishedMeter float64 `json:"finished_meter"`
	FinishedKg    float64 `json:"finished_kg"`
}

// =============================================================================
// DASHBOARD TYPES
// =============================================================================

// SiteStatsDTO summarizes available stock at one site.
type SiteStatsDTO struct {
	Count   int     `json:"count"`
	TotalKg float64 `json:"total_kg"`
}

// ActivityDTO is one recent sale or transfer.
type ActivityDTO struct {
	ID       string  `json:"id"`
	PokaNo   string  `json:"poka_no"`
	ShadeNo  string  `json:"shade_no"`
	Kg       float64 `json:"kg"`
	Type     string  `json:"type"`
	Location string  `json:"location"`
	Date     string  `json:"date"`
}

// DashboardStatsDTO is the dashboard snapshot.
type DashboardStatsDTO struct {
	Mill               SiteStatsDTO  `json:"mill"`
	Warehouse          SiteStatsDTO  `json:"warehouse"`
	SalesKgToday       float64       `json:"sales_kg_today"`
	TransferredKgToday float64       `json:"transferred_kg_today"`
	RecentActivity     []ActivityDTO `json:"recent_activity"`
}

func toDashboardDTO(stats *poka.DashboardStats) DashboardStatsDTO {
	dto := DashboardStatsDTO{
		Mill:               SiteStatsDTO{Count: stats.Mill.Count, TotalKg: stats.Mill.TotalKg.InexactFloat64()},
		Warehouse:          SiteStatsDTO{Count: stats.Warehouse.Count, TotalKg: stats.Warehouse.TotalKg.InexactFloat64()},
		SalesKgToday:       stats.SalesKgToday.InexactFloat64(),
		TransferredKgToday: stats.TransferredKgToday.InexactFloat64(),
		RecentActivity:     make([]ActivityDTO, 0, len(stats.RecentActivity)),
	}
	for _, a := range stats.RecentActivity {
		dto.RecentActivity = append(dto.RecentActivity, ActivityDTO{
			ID:       a.ID,
			PokaNo:   a.PokaNo,
			ShadeNo:  a.ShadeNo,
			Kg:       a.Kg.InexactFloat64(),
			Type:     a.Type,
			Location: string(a.Location),
			Date:     a.Date,
		})
	}
	return dto
}

// =============================================================================
// PRODUCTION TYPES
// =============================================================================

// DowntimeRequest is one stoppage window.
type DowntimeRequest struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// ShiftRequest is one operator shift on one machine.
type ShiftRequest struct {
	Operator  string            `json:"operator"`
	Production float64          `json:"production" validate:"gte=0"`
	Downtimes []DowntimeRequest `json:"downtimes" validate:"dive"`
}

// MachineRequest is one machine's record within a day.
type MachineRequest struct {
	Number        int           `json:"number" validate:"required,gt=0"`
	ShiftCombined bool          `json:"shift_combined"`
	Combined      *ShiftRequest `json:"combined,omitempty"`
	Day           *ShiftRequest `json:"day,omitempty"`
	Night         *ShiftRequest `json:"night,omitempty"`
}

// ProductionEntryRequest is the request to record a day's production.
type ProductionEntryRequest struct {
	Date     string           `json:"date" validate:"required"`
	Machines []MachineRequest `json:"machines" validate:"required,min=1,dive"`
}

// Entry converts the request into a domain entry.
func (r ProductionEntryRequest) Entry() *production.Entry {
	return &production.Entry{
		Date:     r.Date,
		Machines: toMachines(r.Machines),
	}
}

func toMachines(reqs []MachineRequest) []production.Machine {
	machines := make([]production.Machine, len(reqs))
	for i, m := range reqs {
		machines[i] = production.Machine{
			Number:        m.Number,
			ShiftCombined: m.ShiftCombined,
			Combined:      toShift(m.Combined),
			Day:           toShift(m.Day),
			Night:         toShift(m.Night),
		}
	}
	return machines
}

func toShift(r *ShiftRequest) *production.Shift {
	if r == nil {
		return nil
	}
	sh := &production.Shift{
		Operator:   r.Operator,
		Production: decimal.NewFromFloat(r.Production),
	}
	for _, dt := range r.Downtimes {
		sh.Downtimes = append(sh.Downtimes, production.Downtime{From: dt.From, To: dt.To, Reason: dt.Reason})
	}
	return sh
}

// DowntimeDTO, ShiftDTO and MachineDTO mirror the request shapes.
type DowntimeDTO struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type ShiftDTO struct {
	Operator   string        `json:"operator"`
	Production float64       `json:"production"`
	Downtimes  []DowntimeDTO `json:"downtimes,omitempty"`
}

type MachineDTO struct {
	Number        int       `json:"number"`
	ShiftCombined bool      `json:"shift_combined"`
	Combined      *ShiftDTO `json:"combined,omitempty"`
	Day           *ShiftDTO `json:"day,omitempty"`
	Night         *ShiftDTO `json:"night,omitempty"`
}

// ProductionEntryDTO represents a day's production log.
type ProductionEntryDTO struct {
	ID              string       `json:"id"`
	Date            string       `json:"date"`
	Machines        []MachineDTO `json:"machines"`
	TotalProduction float64      `json:"total_production"`
	CreatedAt       string       `json:"created_at,omitempty"`
	UpdatedAt       string       `json:"updated_at,omitempty"`
}

func toProductionDTO(e *production.Entry) ProductionEntryDTO {
	dto := ProductionEntryDTO{
		ID:              e.ID,
		Date:            e.Date,
		Machines:        make([]MachineDTO, len(e.Machines)),
		TotalProduction: e.TotalProduction.InexactFloat64(),
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
	for i, m := range e.Machines {
		dto.Machines[i] = MachineDTO{
			Number:        m.Number,
			ShiftCombined: m.ShiftCombined,
			Combined:      toShiftDTO(m.Combined),
			Day:           toShiftDTO(m.Day),
			Night:         toShiftDTO(m.Night),
		}
	}
	return dto
}

func toShiftDTO(sh *production.Shift) *ShiftDTO {
	if sh == nil {
		return nil
	}
	dto := &ShiftDTO{
		Operator:   sh.Operator,
		Production: sh.Production.InexactFloat64(),
	}
	for _, dt := range sh.Downtimes {
		dto.Downtimes = append(dto.Downtimes, DowntimeDTO{From: dt.From, To: dt.To, Reason: dt.Reason})
	}
	return dto
}

// MachineStatDTO, ReasonStatDTO and RankEntryDTO are analysis rows.
type MachineStatDTO struct {
	Machine         int     `json:"machine"`
	Production      float64 `json:"production"`
	DowntimeMinutes int     `json:"downtime_minutes"`
}

type ReasonStatDTO struct {
	Reason  string `json:"reason"`
	Minutes int    `json:"minutes"`
}

type RankEntryDTO struct {
	Machine       string  `json:"machine"`
	DowntimeHours float64 `json:"downtime_hours"`
	Production    float64 `json:"production"`
}

// AnalysisDTO is the production/downtime aggregate.
type AnalysisDTO struct {
	TotalProduction      float64          `json:"total_production"`
	TotalDowntimeMinutes int              `json:"total_downtime_minutes"`
	EntryCount           int              `json:"entry_count"`
	Machines             []MachineStatDTO `json:"machines"`
	Reasons              []ReasonStatDTO  `json:"reasons"`
	Ranking              []RankEntryDTO   `json:"ranking"`
}

func toAnalysisDTO(a *production.Analysis) AnalysisDTO {
	dto := AnalysisDTO{
		TotalProduction:      a.TotalProduction.InexactFloat64(),
		TotalDowntimeMinutes: a.TotalDowntimeMinutes,
		EntryCount:           a.EntryCount,
		Machines:             make([]MachineStatDTO, 0, len(a.Machines)),
		Reasons:              make([]ReasonStatDTO, 0, len(a.Reasons)),
		Ranking:              make([]RankEntryDTO, 0, len(a.Ranking)),
	}
	for _, m := range a.Machines {
		dto.Machines = append(dto.Machines, MachineStatDTO{
			Machine:         m.Machine,
			Production:      m.Production.InexactFloat64(),
			DowntimeMinutes: m.DowntimeMinutes,
		})
	}
	for _, r := range a.Reasons {
		dto.Reasons = append(dto.Reasons, ReasonStatDTO{Reason: r.Reason, Minutes: r.Minutes})
	}
	for _, r := range a.Ranking {
		dto.Ranking = append(dto.Ranking, RankEntryDTO{
			Machine:       r.Machine,
			DowntimeHours: r.DowntimeHours.InexactFloat64(),
			Production:    r.Production.InexactFloat64(),
		})
	}
	return dto
}
