package dataset

import "github.com/afrominerals/atlas/internal/domain"

// joinProduction inner-joins production records with countries and minerals
// on their id keys. Rows whose foreign key has no match are dropped; this
// is deliberate data-quality policy, so every joined row carries a non-empty
// country and mineral reference.
func joinProduction(records []domain.ProductionRecord, countries []domain.Country, minerals []domain.Mineral) []domain.ProductionView {
	if len(records) == 0 || len(countries) == 0 || len(minerals) == 0 {
		return nil
	}

	countryByID := make(map[int64]domain.Country, len(countries))
	for _, c := range countries {
		countryByID[c.ID] = c
	}
	mineralByID := make(map[int64]domain.Mineral, len(minerals))
	for _, m := range minerals {
		mineralByID[m.ID] = m
	}

	views := make([]domain.ProductionView, 0, len(records))
	for _, rec := range records {
		country, ok := countryByID[rec.CountryID]
		if !ok {
			continue
		}
		mineral, ok := mineralByID[rec.MineralID]
		if !ok {
			continue
		}
		views = append(views, domain.ProductionView{
			ProductionRecord:        rec,
			CountryName:             country.Name,
			GDPBillionUSD:           country.GDPBillionUSD,
			MiningRevenueBillionUSD: country.MiningRevenueBillionUSD,
			KeyProjects:             country.KeyProjects,
			MineralName:             mineral.Name,
			MineralDescription:      mineral.Description,
		})
	}
	return views
}

// joinSites inner-joins sites with countries and minerals, identical rule
// to joinProduction.
func joinSites(sites []domain.Site, countries []domain.Country, minerals []domain.Mineral) []domain.SiteView {
	if len(sites) == 0 || len(countries) == 0 || len(minerals) == 0 {
		return nil
	}

	countryByID := make(map[int64]domain.Country, len(countries))
	for _, c := range countries {
		countryByID[c.ID] = c
	}
	mineralByID := make(map[int64]domain.Mineral, len(minerals))
	for _, m := range minerals {
		mineralByID[m.ID] = m
	}

	views := make([]domain.SiteView, 0, len(sites))
	for _, site := range sites {
		country, ok := countryByID[site.CountryID]
		if !ok {
			continue
		}
		mineral, ok := mineralByID[site.MineralID]
		if !ok {
			continue
		}
		views = append(views, domain.SiteView{
			Site:        site,
			CountryName: country.Name,
			MineralName: mineral.Name,
		})
	}
	return views
}
