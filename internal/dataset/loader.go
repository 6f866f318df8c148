// Package dataset loads the four tabular sources, validates them, and
// joins them into the query-ready views served by the dashboard.
//
// Loading never fails hard: a source that is absent or cannot be parsed
// yields an empty table with the expected schema, and the cause (missing
// vs malformed) is recorded per source so callers and tests can tell the
// two apart.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/afrominerals/atlas/internal/domain"
)

// TableStatus records why a table holds the rows it does.
type TableStatus string

const (
	// StatusLoaded means the source parsed cleanly (possibly with zero rows).
	StatusLoaded TableStatus = "loaded"

	// StatusMissing means the source file was absent.
	StatusMissing TableStatus = "missing"

	// StatusMalformed means the source existed but could not be parsed as
	// the expected schema; it was substituted with an empty table.
	StatusMalformed TableStatus = "malformed"
)

// Required columns per source.
var (
	countryColumns    = []string{"CountryID", "CountryName", "GDP_BillionUSD", "MiningRevenue_BillionUSD", "KeyProjects"}
	mineralColumns    = []string{"MineralID", "MineralName", "Description"}
	productionColumns = []string{"CountryID", "MineralID", "Production_tonnes", "ExportValue_BillionUSD"}
	siteColumns       = []string{"SiteID", "SiteName", "CountryID", "MineralID", "Latitude", "Longitude", "Production_tonnes"}
)

// table is a parsed CSV with columns addressable by header name.
type table struct {
	index map[string]int
	rows  [][]string
}

// parseTable parses CSV bytes and verifies the required columns exist.
// Ragged rows are tolerated; rows too short for a required column are
// dropped at access time.
func parseTable(data []byte, required []string) (*table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv parse: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv parse: no header row")
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	return &table{index: index, rows: records[1:]}, nil
}

// get returns the cell for a column, and whether the row is long enough.
func (t *table) get(row []string, column string) (string, bool) {
	i := t.index[column]
	if i >= len(row) {
		return "", false
	}
	return row[i], true
}

func (t *table) id(row []string, column string) (int64, bool) {
	cell, ok := t.get(row, column)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// number parses a numeric cell, substituting 0 for blank or unparseable
// values the way the original data pipeline fills missing measurements.
func (t *table) number(row []string, column string) float64 {
	cell, ok := t.get(row, column)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseCountries converts countries.csv bytes to typed rows.
// Rows without a parseable CountryID are dropped.
func parseCountries(data []byte) ([]domain.Country, error) {
	t, err := parseTable(data, countryColumns)
	if err != nil {
		return nil, err
	}

	countries := make([]domain.Country, 0, len(t.rows))
	for _, row := range t.rows {
		id, ok := t.id(row, "CountryID")
		if !ok {
			continue
		}
		name, _ := t.get(row, "CountryName")
		projects, _ := t.get(row, "KeyProjects")
		countries = append(countries, domain.Country{
			ID:                      id,
			Name:                    name,
			GDPBillionUSD:           t.number(row, "GDP_BillionUSD"),
			MiningRevenueBillionUSD: t.number(row, "MiningRevenue_BillionUSD"),
			KeyProjects:             projects,
		})
	}
	return countries, nil
}

func parseMinerals(data []byte) ([]domain.Mineral, error) {
	t, err := parseTable(data, mineralColumns)
	if err != nil {
		return nil, err
	}

	minerals := make([]domain.Mineral, 0, len(t.rows))
	for _, row := range t.rows {
		id, ok := t.id(row, "MineralID")
		if !ok {
			continue
		}
		name, _ := t.get(row, "MineralName")
		desc, _ := t.get(row, "Description")
		minerals = append(minerals, domain.Mineral{ID: id, Name: name, Description: desc})
	}
	return minerals, nil
}

func parseProduction(data []byte) ([]domain.ProductionRecord, error) {
	t, err := parseTable(data, productionColumns)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ProductionRecord, 0, len(t.rows))
	for _, row := range t.rows {
		countryID, ok := t.id(row, "CountryID")
		if !ok {
			continue
		}
		mineralID, ok := t.id(row, "MineralID")
		if !ok {
			continue
		}
		records = append(records, domain.ProductionRecord{
			CountryID:             countryID,
			MineralID:             mineralID,
			ProductionTonnes:      t.number(row, "Production_tonnes"),
			ExportValueBillionUSD: t.number(row, "ExportValue_BillionUSD"),
		})
	}
	return records, nil
}

func parseSites(data []byte) ([]domain.Site, error) {
	t, err := parseTable(data, siteColumns)
	if err != nil {
		return nil, err
	}

	sites := make([]domain.Site, 0, len(t.rows))
	for _, row := range t.rows {
		id, ok := t.id(row, "SiteID")
		if !ok {
			continue
		}
		countryID, ok := t.id(row, "CountryID")
		if !ok {
			continue
		}
		mineralID, ok := t.id(row, "MineralID")
		if !ok {
			continue
		}
		name, _ := t.get(row, "SiteName")
		lat, _ := t.get(row, "Latitude")
		lon, _ := t.get(row, "Longitude")
		sites = append(sites, domain.Site{
			ID:               id,
			Name:             name,
			CountryID:        countryID,
			MineralID:        mineralID,
			Latitude:         lat,
			Longitude:        lon,
			ProductionTonnes: t.number(row, "Production_tonnes"),
		})
	}
	return sites, nil
}
