package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/afrominerals/atlas/internal/dataset"
	"github.com/afrominerals/atlas/internal/repository"
	"github.com/afrominerals/atlas/internal/sources"
)

func newTestInsightService(t *testing.T, files map[string]string) (*InsightService, *DatasetService) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	store, err := sources.NewFilesystemStore(dir)
	require.NoError(t, err)

	repo := dataset.NewRepository(store, zerolog.Nop())
	datasets := NewDatasetService(repo, nil, zerolog.Nop())
	return NewInsightService(datasets, zerolog.Nop()), datasets
}

func testSources() map[string]string {
	return map[string]string{
		sources.CountriesFile: "CountryID,CountryName,GDP_BillionUSD,MiningRevenue_BillionUSD,KeyProjects\n" +
			"1,Zed,100,20,Big Pit\n" +
			"2,Wye,50,10,North Shaft\n" +
			"3,Exe,0,5,Deep Bore\n",
		sources.MineralsFile: "MineralID,MineralName,Description\n" +
			"1,Cobalt,Battery metal\n" +
			"2,Lithium,Battery metal\n",
		sources.ProductionFile: "CountryID,MineralID,Production_tonnes,ExportValue_BillionUSD\n" +
			"1,1,1000,2.5\n" +
			"1,2,300,0.4\n" +
			"2,1,700,1.1\n" +
			"3,2,700,0.2\n",
		sources.SitesFile: "SiteID,SiteName,CountryID,MineralID,Latitude,Longitude,Production_tonnes\n" +
			"1,Big Pit,1,1,-11.6,27.5,900\n",
	}
}

func TestInsightService_TopMinerals(t *testing.T) {
	insights, _ := newTestInsightService(t, testSources())

	totals, err := insights.TopMinerals(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	require.Equal(t, "Cobalt", totals[0].MineralName)
	require.Equal(t, float64(1700), totals[0].ProductionTonnes)
	require.Equal(t, "Lithium", totals[1].MineralName)
	require.Equal(t, float64(1000), totals[1].ProductionTonnes)

	limited, err := insights.TopMinerals(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "Cobalt", limited[0].MineralName)
}

func TestInsightService_TopCountries(t *testing.T) {
	insights, _ := newTestInsightService(t, testSources())

	totals, err := insights.TopCountries(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, totals, 3)

	require.Equal(t, "Zed", totals[0].CountryName)
	require.Equal(t, float64(1300), totals[0].ProductionTonnes)

	// Wye and Exe tie at 700; the tiebreak is name order.
	require.Equal(t, "Exe", totals[1].CountryName)
	require.Equal(t, "Wye", totals[2].CountryName)
}

func TestInsightService_Summary(t *testing.T) {
	insights, _ := newTestInsightService(t, testSources())

	totals, err := insights.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, totals.Countries)
	require.Equal(t, float64(150), totals.GDPBillionUSD)
	require.Equal(t, float64(35), totals.MiningRevenueBillionUSD)
}

func TestInsightService_CountryProfile(t *testing.T) {
	insights, _ := newTestInsightService(t, testSources())
	ctx := context.Background()

	profile, err := insights.CountryProfile(ctx, "Zed")
	require.NoError(t, err)
	require.Equal(t, "Zed", profile.Country.Name)
	require.Equal(t, float64(20), profile.MiningShareOfGDP)
	require.Len(t, profile.Production, 2)

	// Zero GDP must not divide.
	profile, err = insights.CountryProfile(ctx, "Exe")
	require.NoError(t, err)
	require.Zero(t, profile.MiningShareOfGDP)

	_, err = insights.CountryProfile(ctx, "Atlantis")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInsightService_Compare(t *testing.T) {
	insights, _ := newTestInsightService(t, testSources())

	rows, err := insights.Compare(context.Background(), []string{"Zed", "Wye"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Contains(t, []string{"Zed", "Wye"}, row.CountryName)
	}

	rows, err = insights.Compare(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestInsightService_EmptyDataset(t *testing.T) {
	// No source files at all: everything degrades to empty, not errors.
	insights, datasets := newTestInsightService(t, map[string]string{})
	ctx := context.Background()

	totals, err := insights.TopMinerals(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, totals)

	summary, err := insights.Summary(ctx)
	require.NoError(t, err)
	require.Zero(t, summary.Countries)

	model, err := datasets.MapModel(ctx, "All")
	require.NoError(t, err)
	require.Nil(t, model)
}

func TestDatasetService_MineralNames(t *testing.T) {
	_, datasets := newTestInsightService(t, testSources())

	names, err := datasets.MineralNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Cobalt", "Lithium"}, names)
}
