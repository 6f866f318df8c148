package geo

import (
	"testing"

	"github.com/afrominerals/atlas/internal/domain"
)

func site(name, mineral, country, lat, lon string, tonnes float64) domain.SiteView {
	return domain.SiteView{
		Site: domain.Site{
			Name:             name,
			Latitude:         lat,
			Longitude:        lon,
			ProductionTonnes: tonnes,
		},
		CountryName: country,
		MineralName: mineral,
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	if got := Build(nil, FilterAll); got != nil {
		t.Errorf("expected nil model for empty input, got %+v", got)
	}
	if got := Build([]domain.SiteView{}, FilterAll); got != nil {
		t.Errorf("expected nil model for empty input, got %+v", got)
	}
}

func TestBuild_AllMinerals(t *testing.T) {
	rows := []domain.SiteView{
		site("Big Pit", "Cobalt", "Zed", "-10", "20", 1500),
		site("North Shaft", "Lithium", "Wye", "-20", "30", 400),
	}

	model := Build(rows, FilterAll)
	if model == nil {
		t.Fatal("expected model")
	}
	if len(model.Markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(model.Markers))
	}
	if model.Zoom != 3 {
		t.Errorf("expected zoom 3, got %d", model.Zoom)
	}
	if model.CenterLatitude != -15 || model.CenterLongitude != 25 {
		t.Errorf("expected center (-15, 25), got (%v, %v)", model.CenterLatitude, model.CenterLongitude)
	}

	want := "Big Pit | Mineral: Cobalt | Country: Zed | Production: 1,500 t"
	if model.Markers[0].Label != want {
		t.Errorf("expected label %q, got %q", want, model.Markers[0].Label)
	}
}

func TestBuild_MineralFilter(t *testing.T) {
	rows := []domain.SiteView{
		site("A", "Cobalt", "Zed", "1", "1", 10),
		site("B", "Lithium", "Zed", "2", "2", 20),
		site("C", "Cobalt", "Wye", "3", "3", 30),
	}

	model := Build(rows, "Cobalt")
	if model == nil {
		t.Fatal("expected model")
	}
	if len(model.Markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(model.Markers))
	}
	for _, m := range model.Markers {
		if m.MineralName != "Cobalt" {
			t.Errorf("unexpected mineral in filtered output: %s", m.MineralName)
		}
	}

	// Filter matching is exact and case-sensitive.
	model = Build(rows, "cobalt")
	if model == nil {
		t.Fatal("expected model")
	}
	if len(model.Markers) != 0 {
		t.Errorf("expected no markers for case-mismatched filter, got %d", len(model.Markers))
	}
}

func TestBuild_DeterministicColors(t *testing.T) {
	rows := []domain.SiteView{
		site("A", "Cobalt", "Zed", "1", "1", 10),
		site("B", "Lithium", "Zed", "2", "2", 20),
		site("C", "Cobalt", "Wye", "3", "3", 30),
	}

	first := Build(rows, FilterAll)
	second := Build(rows, FilterAll)

	for i := range first.Markers {
		if first.Markers[i].Color != second.Markers[i].Color {
			t.Errorf("marker %d color differs between runs: %s vs %s",
				i, first.Markers[i].Color, second.Markers[i].Color)
		}
	}

	// First-encounter order drives the palette assignment.
	if first.Markers[0].Color != palette[0] {
		t.Errorf("expected first mineral to get palette[0], got %s", first.Markers[0].Color)
	}
	if first.Markers[1].Color != palette[1] {
		t.Errorf("expected second mineral to get palette[1], got %s", first.Markers[1].Color)
	}
	if first.Markers[2].Color != first.Markers[0].Color {
		t.Error("expected same mineral to share one color")
	}
}

func TestBuild_InvalidCoordinatesExcluded(t *testing.T) {
	rows := []domain.SiteView{
		site("Valid", "Cobalt", "Zed", "10", "20", 10),
		site("BadLat", "Cobalt", "Zed", "not-a-number", "20", 10),
		site("BadLon", "Cobalt", "Zed", "10", "", 10),
	}

	model := Build(rows, FilterAll)
	if model == nil {
		t.Fatal("expected model")
	}
	if len(model.Markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(model.Markers))
	}
	// Invalid rows do not drag the mean toward zero.
	if model.CenterLatitude != 10 || model.CenterLongitude != 20 {
		t.Errorf("expected center (10, 20), got (%v, %v)", model.CenterLatitude, model.CenterLongitude)
	}
}

func TestBuild_NoValidCoordinates(t *testing.T) {
	rows := []domain.SiteView{
		site("BadA", "Cobalt", "Zed", "x", "y", 10),
		site("BadB", "Lithium", "Zed", "", "", 20),
	}

	model := Build(rows, FilterAll)
	if model == nil {
		t.Fatal("expected model")
	}
	if len(model.Markers) != 0 {
		t.Errorf("expected no markers, got %d", len(model.Markers))
	}
	if model.CenterLatitude != 0 || model.CenterLongitude != 0 {
		t.Errorf("expected center (0, 0), got (%v, %v)", model.CenterLatitude, model.CenterLongitude)
	}
}

func TestGroupInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := groupInt(tt.in); got != tt.want {
			t.Errorf("groupInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
