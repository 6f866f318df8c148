// Package geo aggregates joined site rows into a map model: point markers
// with deterministic per-mineral colors, a geographic center, and a zoom
// hint. Clustering of the markers is a rendering concern and happens
// downstream of this package.
package geo

import (
	"fmt"
	"strconv"

	"github.com/afrominerals/atlas/internal/domain"
)

// FilterAll selects every mineral.
const FilterAll = "All"

// defaultZoom is the zoom hint for the continental view.
const defaultZoom = 3

// palette is the fixed qualitative palette markers are colored from.
// A mineral's color is the palette entry at its first-encounter position
// in filtered row order, modulo the palette size.
var palette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// Build aggregates the joined sites view into a MapModel.
//
// Returns nil when the input view is empty. Rows whose coordinates do not
// parse as numbers are excluded from both the center mean and the marker
// list, never treated as zero. When the filtered set has no valid
// coordinates at all, the center defaults to (0, 0).
//
// The color assignment is reproducible for a given filter and data
// snapshot: two runs over the same data in the same order yield the same
// color per mineral.
func Build(sitesView []domain.SiteView, mineralFilter string) *domain.MapModel {
	if len(sitesView) == 0 {
		return nil
	}

	filtered := sitesView
	if mineralFilter != "" && mineralFilter != FilterAll {
		filtered = make([]domain.SiteView, 0, len(sitesView))
		for _, row := range sitesView {
			if row.MineralName == mineralFilter {
				filtered = append(filtered, row)
			}
		}
	}

	colors := assignColors(filtered)

	var (
		latSum, lonSum float64
		valid          int
	)
	markers := make([]domain.Marker, 0, len(filtered))

	for _, row := range filtered {
		lat, err := strconv.ParseFloat(row.Latitude, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(row.Longitude, 64)
		if err != nil {
			continue
		}

		latSum += lat
		lonSum += lon
		valid++

		markers = append(markers, domain.Marker{
			Latitude:         lat,
			Longitude:        lon,
			Color:            colors[row.MineralName],
			SiteName:         row.Name,
			MineralName:      row.MineralName,
			CountryName:      row.CountryName,
			ProductionTonnes: row.ProductionTonnes,
			Label: fmt.Sprintf("%s | Mineral: %s | Country: %s | Production: %s t",
				row.Name, row.MineralName, row.CountryName, groupInt(int64(row.ProductionTonnes))),
		})
	}

	model := &domain.MapModel{
		Zoom:    defaultZoom,
		Markers: markers,
	}
	if valid > 0 {
		model.CenterLatitude = latSum / float64(valid)
		model.CenterLongitude = lonSum / float64(valid)
	}
	return model
}

// assignColors maps each distinct mineral name to a palette color by its
// position in first-encounter order over the filtered rows.
func assignColors(rows []domain.SiteView) map[string]string {
	colors := make(map[string]string)
	next := 0
	for _, row := range rows {
		if row.MineralName == "" {
			continue
		}
		if _, ok := colors[row.MineralName]; ok {
			continue
		}
		colors[row.MineralName] = palette[next%len(palette)]
		next++
	}
	return colors
}

// groupInt formats an integer with comma thousands separators.
func groupInt(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
