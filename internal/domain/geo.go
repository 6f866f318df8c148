package domain

// Marker is a single map point derived from one joined site row.
type Marker struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Color is the hex color assigned to the marker's mineral.
	Color string `json:"color"`

	SiteName         string  `json:"site_name"`
	MineralName      string  `json:"mineral_name"`
	CountryName      string  `json:"country_name"`
	ProductionTonnes float64 `json:"production_tonnes"`

	// Label carries the site name, mineral, country and production
	// (grouped integer) for popup rendering.
	Label string `json:"label"`
}

// MapModel is the aggregated map payload: markers plus a center and zoom
// hint. Clustering of markers is a rendering concern and happens downstream.
type MapModel struct {
	CenterLatitude  float64  `json:"center_latitude"`
	CenterLongitude float64  `json:"center_longitude"`
	Zoom            int      `json:"zoom"`
	Markers         []Marker `json:"markers"`
}
