package poka

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DASHBOARD - Aggregate stock and activity snapshot
// =============================================================================

// SiteStats summarizes available stock at one site.
type SiteStats struct {
	Count   int
	TotalKg decimal.Decimal
}

// Activity is one recent sale or transfer for the dashboard feed.
type Activity struct {
	ID        string
	PokaNo    string
	ShadeNo   string
	Kg        decimal.Decimal
	Type      string // "sale" or "transfer"
	Location  Location
	Date      string
	UpdatedAt time.Time
}

// DashboardStats is the aggregate snapshot for the dashboard screen.
type DashboardStats struct {
	Mill               SiteStats
	Warehouse          SiteStats
	SalesKgToday       decimal.Decimal
	TransferredKgToday decimal.Decimal
	RecentActivity     []Activity
}

const recentActivityLimit = 15

// Dashboard aggregates per-site available stock, today's sale and
// transfer volumes, and the most recent sold/transferred units.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	today := s.today()
	available, sold := StatusAvailable, StatusSold
	mill, warehouse := LocationMill, LocationWarehouse

	millStock, err := s.pokas.Find(ctx, Filter{Location: &mill, Status: &available})
	if err != nil {
		return nil, err
	}
	warehouseStock, err := s.pokas.Find(ctx, Filter{Location: &warehouse, Status: &available})
	if err != nil {
		return nil, err
	}
	todaySales, err := s.pokas.Find(ctx, Filter{Status: &sold, SaleDate: &today})
	if err != nil {
		return nil, err
	}
	todayTransfers, err := s.pokas.Find(ctx, Filter{Status: &available, Location: &warehouse, TransferDate: &today})
	if err != nil {
		return nil, err
	}
	allSold, err := s.pokas.Find(ctx, Filter{Status: &sold})
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Mill:               siteStats(millStock),
		Warehouse:          siteStats(warehouseStock),
		SalesKgToday:       sumKg(todaySales),
		TransferredKgToday: sumKg(todayTransfers),
	}

	recent := make([]Activity, 0, len(allSold)+len(warehouseStock))
	for _, p := range allSold {
		recent = append(recent, activity(p, "sale", p.SaleDate))
	}
	for _, p := range warehouseStock {
		recent = append(recent, activity(p, "transfer", p.TransferDate))
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}
	stats.RecentActivity = recent

	return stats, nil
}

func siteStats(units []Poka) SiteStats {
	return SiteStats{Count: len(units), TotalKg: sumKg(units)}
}

func sumKg(units []Poka) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range units {
		sum = sum.Add(p.Kg)
	}
	return sum
}

func activity(p Poka, kind, date string) Activity {
	return Activity{
		ID:        p.ID,
		PokaNo:    p.PokaNo,
		ShadeNo:   p.ShadeNo,
		Kg:        p.Kg,
		Type:      kind,
		Location:  p.Location,
		Date:      date,
		UpdatedAt: p.UpdatedAt,
	}
}
