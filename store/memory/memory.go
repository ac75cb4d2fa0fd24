// Package memory provides in-memory store implementations for tests and dev.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/weftworks/millstock/ledger"
	"github.com/weftworks/millstock/poka"
	"github.com/weftworks/millstock/production"
)

// =============================================================================
// LEDGER STORE
// =============================================================================

// Ledger is an in-memory ledger.Store.
type Ledger struct {
	mu      sync.RWMutex
	entries map[ledger.Kind][]*ledger.Entry // insertion order
	seq     int                             // tie-breaker for equal CreatedAt
	order   map[string]int                  // entry id -> insertion sequence
}

func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[ledger.Kind][]*ledger.Entry),
		order:   make(map[string]int),
	}
}

func (m *Ledger) FindByDate(_ context.Context, kind ledger.Kind, date string) (*ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries[kind] {
		if e.Date == date {
			return e.Clone(), nil
		}
	}
	return nil, nil
}

func (m *Ledger) FindBefore(_ context.Context, kind ledger.Kind, date string) (*ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *ledger.Entry
	for _, e := range m.entries[kind] {
		if e.Date < date && (best == nil || e.Date > best.Date) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.Clone(), nil
}

func (m *Ledger) FindFrom(_ context.Context, kind ledger.Kind, from string) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ledger.Entry
	for _, e := range m.entries[kind] {
		if e.Date >= from {
			result = append(result, *e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (m *Ledger) Latest(_ context.Context, kind ledger.Kind) (*ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.entries[kind]
	if len(list) == 0 {
		return nil, nil
	}
	return list[len(list)-1].Clone(), nil
}

func (m *Ledger) Get(_ context.Context, kind ledger.Kind, id string) (*ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries[kind] {
		if e.ID == id {
			return e.Clone(), nil
		}
	}
	return nil, nil
}

func (m *Ledger) List(_ context.Context, kind ledger.Kind) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.entries[kind]
	result := make([]ledger.Entry, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- { // newest created first
		result = append(result, *list[i].Clone())
	}
	return result, nil
}

func (m *Ledger) Insert(_ context.Context, e *ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.order[e.ID] = m.seq
	m.entries[e.Kind] = append(m.entries[e.Kind], e.Clone())
	return nil
}

func (m *Ledger) Save(_ context.Context, e *ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(e)
}

func (m *Ledger) SaveAll(_ context.Context, entries []ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Validate first so the batch is all-or-nothing.
	for i := range entries {
		if m.indexLocked(entries[i].Kind, entries[i].ID) < 0 {
			return ledger.ErrEntryNotFound
		}
	}
	for i := range entries {
		if err := m.saveLocked(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Ledger) Delete(_ context.Context, kind ledger.Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(kind, id)
	if i < 0 {
		return ledger.ErrEntryNotFound
	}
	m.entries[kind] = append(m.entries[kind][:i], m.entries[kind][i+1:]...)
	delete(m.order, id)
	return nil
}

func (m *Ledger) saveLocked(e *ledger.Entry) error {
	i := m.indexLocked(e.Kind, e.ID)
	if i < 0 {
		return ledger.ErrEntryNotFound
	}
	clone := e.Clone()
	clone.CreatedAt = m.entries[e.Kind][i].CreatedAt // insertion time is immutable
	m.entries[e.Kind][i] = clone
	return nil
}

func (m *Ledger) indexLocked(kind ledger.Kind, id string) int {
	for i, e := range m.entries[kind] {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// POKA STORE
// =============================================================================

// Pokas is an in-memory poka.Store.
type Pokas struct {
	mu    sync.RWMutex
	units []*poka.Poka // insertion order
}

func NewPokas() *Pokas {
	return &Pokas{}
}

func (m *Pokas) Find(_ context.Context, f poka.Filter) ([]poka.Poka, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []poka.Poka
	for i := len(m.units) - 1; i >= 0; i-- { // newest created first
		p := m.units[i]
		if matches(p, f) {
			result = append(result, *p.Clone())
		}
	}
	return result, nil
}

func matches(p *poka.Poka, f poka.Filter) bool {
	if f.Location != nil && p.Location != *f.Location {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.TransferredFrom != nil && p.TransferredFrom != *f.TransferredFrom {
		return false
	}
	if f.SaleDate != nil && p.SaleDate != *f.SaleDate {
		return false
	}
	if f.TransferDate != nil && p.TransferDate != *f.TransferDate {
		return false
	}
	return true
}

func (m *Pokas) FindByID(_ context.Context, id string) (*poka.Poka, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.units {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, nil
}

func (m *Pokas) FindByNumbers(_ context.Context, nos []string) ([]poka.Poka, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[string]bool, len(nos))
	for _, no := range nos {
		wanted[no] = true
	}
	var result []poka.Poka
	for _, p := range m.units {
		if wanted[p.PokaNo] {
			result = append(result, *p.Clone())
		}
	}
	return result, nil
}

func (m *Pokas) InsertMany(_ context.Context, units []poka.Poka) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range units {
		m.units = append(m.units, units[i].Clone())
	}
	return nil
}

func (m *Pokas) UpdateMany(_ context.Context, ids []string, patch poka.Patch) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	count := 0
	for _, p := range m.units {
		if !wanted[p.ID] {
			continue
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		if patch.Location != nil {
			p.Location = *patch.Location
		}
		if patch.SaleDate != nil {
			p.SaleDate = *patch.SaleDate
		}
		if patch.TransferDate != nil {
			p.TransferDate = *patch.TransferDate
		}
		if patch.TransferredFrom != nil {
			p.TransferredFrom = *patch.TransferredFrom
		}
		if patch.SalePrice != nil {
			price := *patch.SalePrice
			p.SalePrice = &price
		}
		if patch.CustomerName != nil {
			p.CustomerName = *patch.CustomerName
		}
		p.UpdatedAt = time.Now().UTC()
		count++
	}
	return count, nil
}

func (m *Pokas) Save(_ context.Context, p *poka.Poka) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.units {
		if existing.ID == p.ID {
			clone := p.Clone()
			clone.CreatedAt = existing.CreatedAt
			m.units[i] = clone
			return nil
		}
	}
	return poka.ErrPokaNotFound
}

func (m *Pokas) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.units {
		if p.ID == id {
			m.units = append(m.units[:i], m.units[i+1:]...)
			return nil
		}
	}
	return poka.ErrPokaNotFound
}

// =============================================================================
// PRODUCTION STORE
// =============================================================================

// Production is an in-memory production.Store.
type Production struct {
	mu      sync.RWMutex
	entries []*production.Entry // insertion order
}

func NewProduction() *Production {
	return &Production{}
}

func (m *Production) FindByDate(_ context.Context, date string) (*production.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.Date == date {
			return cloneProductionEntry(e), nil
		}
	}
	return nil, nil
}

func (m *Production) Get(_ context.Context, id string) (*production.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == id {
			return cloneProductionEntry(e), nil
		}
	}
	return nil, nil
}

func (m *Production) List(_ context.Context, f production.Filter) ([]production.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []production.Entry
	for i := len(m.entries) - 1; i >= 0; i-- { // newest created first
		e := m.entries[i]
		if f.DatePrefix != "" && !strings.HasPrefix(e.Date, f.DatePrefix) {
			continue
		}
		result = append(result, *cloneProductionEntry(e))
		if f.Limit > 0 && len(result) == f.Limit {
			break
		}
	}
	return result, nil
}

func (m *Production) Insert(_ context.Context, e *production.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, cloneProductionEntry(e))
	return nil
}

func (m *Production) Save(_ context.Context, e *production.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.entries {
		if existing.ID == e.ID {
			clone := cloneProductionEntry(e)
			clone.CreatedAt = existing.CreatedAt
			m.entries[i] = clone
			return nil
		}
	}
	return production.ErrEntryNotFound
}

func (m *Production) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return production.ErrEntryNotFound
}

// cloneProductionEntry deep-copies an entry so callers never share the
// stored machines or downtime slices.
func cloneProductionEntry(e *production.Entry) *production.Entry {
	clone := *e
	clone.Machines = make([]production.Machine, len(e.Machines))
	for i, machine := range e.Machines {
		machine.Combined = cloneShift(machine.Combined)
		machine.Day = cloneShift(machine.Day)
		machine.Night = cloneShift(machine.Night)
		clone.Machines[i] = machine
	}
	return &clone
}

func cloneShift(s *production.Shift) *production.Shift {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Downtimes = append([]production.Downtime(nil), s.Downtimes...)
	return &clone
}
