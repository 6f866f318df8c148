package domain

// Country is a source-of-truth record from countries.csv, read-only to the core.
type Country struct {
	ID                      int64   `json:"country_id"`
	Name                    string  `json:"country_name"`
	GDPBillionUSD           float64 `json:"gdp_billion_usd"`
	MiningRevenueBillionUSD float64 `json:"mining_revenue_billion_usd"`
	KeyProjects             string  `json:"key_projects"`
}

// Mineral is a source-of-truth record from minerals.csv.
type Mineral struct {
	ID          int64  `json:"mineral_id"`
	Name        string `json:"mineral_name"`
	Description string `json:"description"`
}

// ProductionRecord links a country and a mineral to production output,
// many-to-one against Country and Mineral via their ids.
type ProductionRecord struct {
	CountryID             int64   `json:"country_id"`
	MineralID             int64   `json:"mineral_id"`
	ProductionTonnes      float64 `json:"production_tonnes"`
	ExportValueBillionUSD float64 `json:"export_value_billion_usd"`
}

// Site is a mining site from sites.csv. Latitude and Longitude are kept as
// the raw source text; numeric coercion happens in the map aggregator so
// that unparseable coordinates can be excluded rather than zeroed.
type Site struct {
	ID               int64   `json:"site_id"`
	Name             string  `json:"site_name"`
	CountryID        int64   `json:"country_id"`
	MineralID        int64   `json:"mineral_id"`
	Latitude         string  `json:"latitude"`
	Longitude        string  `json:"longitude"`
	ProductionTonnes float64 `json:"production_tonnes"`
}

// ProductionView is a row of the derived production-by-country-mineral view,
// the inner join of ProductionRecord with Country and Mineral. Rows whose
// foreign key has no match are dropped; CountryName and MineralName are
// therefore never empty in a joined row.
type ProductionView struct {
	ProductionRecord
	CountryName             string  `json:"country_name"`
	GDPBillionUSD           float64 `json:"gdp_billion_usd"`
	MiningRevenueBillionUSD float64 `json:"mining_revenue_billion_usd"`
	KeyProjects             string  `json:"key_projects"`
	MineralName             string  `json:"mineral_name"`
	MineralDescription      string  `json:"mineral_description"`
}

// SiteView is a row of the derived sites-by-country-mineral view,
// the inner join of Site with Country and Mineral.
type SiteView struct {
	Site
	CountryName string `json:"country_name"`
	MineralName string `json:"mineral_name"`
}
