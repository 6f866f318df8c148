package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/repository"
)

// defaultTopLimit bounds ranking queries when the caller gives no limit.
const defaultTopLimit = 6

// MineralTotal is a mineral's summed production across all countries.
type MineralTotal struct {
	MineralName      string  `json:"mineral_name"`
	ProductionTonnes float64 `json:"production_tonnes"`
}

// CountryTotal is a country's summed production across all minerals.
type CountryTotal struct {
	CountryName      string  `json:"country_name"`
	ProductionTonnes float64 `json:"production_tonnes"`
}

// Totals are the headline metrics of the full dashboard.
type Totals struct {
	MiningRevenueBillionUSD float64 `json:"mining_revenue_billion_usd"`
	GDPBillionUSD           float64 `json:"gdp_billion_usd"`
	Countries               int     `json:"countries"`
}

// MineralProduction is one country's production of one mineral.
type MineralProduction struct {
	MineralName           string  `json:"mineral_name"`
	ProductionTonnes      float64 `json:"production_tonnes"`
	ExportValueBillionUSD float64 `json:"export_value_billion_usd"`
}

// CountryProfile is the per-country drill-down of the full dashboard.
type CountryProfile struct {
	Country          domain.Country      `json:"country"`
	MiningShareOfGDP float64             `json:"mining_share_of_gdp_percent"`
	Production       []MineralProduction `json:"production"`
}

// InsightService computes dashboard aggregations over the joined
// production view. All methods degrade to empty results when the joined
// view is unavailable; insufficient data is never an error.
type InsightService struct {
	datasets *DatasetService
	logger   zerolog.Logger
}

// NewInsightService creates a new InsightService.
func NewInsightService(datasets *DatasetService, logger zerolog.Logger) *InsightService {
	return &InsightService{
		datasets: datasets,
		logger:   logger.With().Str("service", "insight").Logger(),
	}
}

// TopMinerals ranks minerals by total production, descending.
func (s *InsightService) TopMinerals(ctx context.Context, limit int) ([]MineralTotal, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	order := make([]string, 0)
	for _, row := range snap.JoinedProduction {
		if _, ok := sums[row.MineralName]; !ok {
			order = append(order, row.MineralName)
		}
		sums[row.MineralName] += row.ProductionTonnes
	}

	totals := make([]MineralTotal, 0, len(order))
	for _, name := range order {
		totals = append(totals, MineralTotal{MineralName: name, ProductionTonnes: sums[name]})
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].ProductionTonnes != totals[j].ProductionTonnes {
			return totals[i].ProductionTonnes > totals[j].ProductionTonnes
		}
		return totals[i].MineralName < totals[j].MineralName
	})

	return clamp(totals, limit), nil
}

// TopCountries ranks countries by total production, descending.
func (s *InsightService) TopCountries(ctx context.Context, limit int) ([]CountryTotal, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	order := make([]string, 0)
	for _, row := range snap.JoinedProduction {
		if _, ok := sums[row.CountryName]; !ok {
			order = append(order, row.CountryName)
		}
		sums[row.CountryName] += row.ProductionTonnes
	}

	totals := make([]CountryTotal, 0, len(order))
	for _, name := range order {
		totals = append(totals, CountryTotal{CountryName: name, ProductionTonnes: sums[name]})
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].ProductionTonnes != totals[j].ProductionTonnes {
			return totals[i].ProductionTonnes > totals[j].ProductionTonnes
		}
		return totals[i].CountryName < totals[j].CountryName
	})

	return clamp(totals, limit), nil
}

// Summary sums mining revenue and GDP over the countries table.
func (s *InsightService) Summary(ctx context.Context) (*Totals, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	totals := &Totals{Countries: len(snap.Countries)}
	for _, c := range snap.Countries {
		totals.MiningRevenueBillionUSD += c.MiningRevenueBillionUSD
		totals.GDPBillionUSD += c.GDPBillionUSD
	}
	return totals, nil
}

// CountryProfile returns the drill-down for one country by name.
func (s *InsightService) CountryProfile(ctx context.Context, name string) (*CountryProfile, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var country *domain.Country
	for i := range snap.Countries {
		if snap.Countries[i].Name == name {
			country = &snap.Countries[i]
			break
		}
	}
	if country == nil {
		return nil, fmt.Errorf("%w: country %q", repository.ErrNotFound, name)
	}

	profile := &CountryProfile{Country: *country}
	if country.GDPBillionUSD != 0 {
		profile.MiningShareOfGDP = country.MiningRevenueBillionUSD / country.GDPBillionUSD * 100
	}

	for _, row := range snap.JoinedProduction {
		if row.CountryName != name {
			continue
		}
		profile.Production = append(profile.Production, MineralProduction{
			MineralName:           row.MineralName,
			ProductionTonnes:      row.ProductionTonnes,
			ExportValueBillionUSD: row.ExportValueBillionUSD,
		})
	}
	return profile, nil
}

// Compare returns the joined production rows for the named countries,
// grouped for side-by-side charts.
func (s *InsightService) Compare(ctx context.Context, names []string) ([]domain.ProductionView, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	var rows []domain.ProductionView
	for _, row := range snap.JoinedProduction {
		if _, ok := wanted[row.CountryName]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// CountryNames lists the country names for selection widgets.
func (s *InsightService) CountryNames(ctx context.Context) ([]string, error) {
	snap, err := s.datasets.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(snap.Countries))
	for _, c := range snap.Countries {
		names = append(names, c.Name)
	}
	return names, nil
}

func clamp[T any](items []T, limit int) []T {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
