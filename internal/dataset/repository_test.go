package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/sources"
)

const (
	countriesCSV = "CountryID,CountryName,GDP_BillionUSD,MiningRevenue_BillionUSD,KeyProjects\n" +
		"1,Zed,100,20,Big Pit\n" +
		"2,Wye,50,5,North Shaft\n"

	mineralsCSV = "MineralID,MineralName,Description\n" +
		"1,Cobalt,Battery metal\n" +
		"2,Lithium,Battery metal\n"

	productionCSV = "CountryID,MineralID,Production_tonnes,ExportValue_BillionUSD\n" +
		"1,1,1000,2.5\n" +
		"2,2,400,0.8\n" +
		"9,1,777,1.0\n"

	sitesCSV = "SiteID,SiteName,CountryID,MineralID,Latitude,Longitude,Production_tonnes\n" +
		"1,Big Pit,1,1,-11.6,27.5,900\n" +
		"2,Ghost Mine,9,1,0,0,10\n"
)

// writeSources populates a temp dir with the given source files and returns
// a repository over it.
func writeSources(t *testing.T, files map[string]string) (*Repository, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	store, err := sources.NewFilesystemStore(dir)
	require.NoError(t, err)
	return NewRepository(store, zerolog.Nop()), dir
}

func allSources() map[string]string {
	return map[string]string{
		sources.CountriesFile:  countriesCSV,
		sources.MineralsFile:   mineralsCSV,
		sources.ProductionFile: productionCSV,
		sources.SitesFile:      sitesCSV,
	}
}

func TestRepository_SnapshotJoins(t *testing.T) {
	repo, _ := writeSources(t, allSources())

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Countries, 2)
	require.Len(t, snap.Minerals, 2)
	require.Len(t, snap.Production, 3)
	require.Len(t, snap.Sites, 2)

	// Production row with CountryID 9 has no matching country and is
	// dropped by the inner join.
	require.Len(t, snap.JoinedProduction, 2)
	first := snap.JoinedProduction[0]
	require.Equal(t, "Zed", first.CountryName)
	require.Equal(t, "Cobalt", first.MineralName)
	require.Equal(t, float64(1000), first.ProductionTonnes)
	require.Equal(t, float64(100), first.GDPBillionUSD)

	// Same for the ghost site.
	require.Len(t, snap.JoinedSites, 1)
	require.Equal(t, "Big Pit", snap.JoinedSites[0].Name)
	require.Equal(t, "Zed", snap.JoinedSites[0].CountryName)

	for _, name := range sources.Names() {
		require.Equal(t, StatusLoaded, snap.Status[name], "status of %s", name)
	}
}

func TestRepository_MissingSource(t *testing.T) {
	files := allSources()
	delete(files, sources.MineralsFile)
	repo, _ := writeSources(t, files)

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, StatusMissing, snap.Status[sources.MineralsFile])
	require.Equal(t, StatusLoaded, snap.Status[sources.CountriesFile])
	require.Empty(t, snap.Minerals)

	// Joins depending on the missing table degrade to nil.
	require.Nil(t, snap.JoinedProduction)
	require.Nil(t, snap.JoinedSites)
}

func TestRepository_MalformedSource(t *testing.T) {
	files := allSources()
	files[sources.MineralsFile] = "NotAHeader,AtAll\n1,2\n"
	repo, _ := writeSources(t, files)

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)

	require.Equal(t, StatusMalformed, snap.Status[sources.MineralsFile])
	require.Empty(t, snap.Minerals)
	require.Nil(t, snap.JoinedProduction)
}

func TestRepository_SnapshotIsCached(t *testing.T) {
	repo, dir := writeSources(t, allSources())
	ctx := context.Background()

	first, err := repo.Snapshot(ctx)
	require.NoError(t, err)

	// Mutating the file behind the cache is not observed...
	require.NoError(t, os.Remove(filepath.Join(dir, sources.MineralsFile)))

	second, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Same(t, first, second)

	// ...until the snapshot is invalidated.
	repo.Invalidate()
	third, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, StatusMissing, third.Status[sources.MineralsFile])
}

func TestRepository_ReplaceSource(t *testing.T) {
	repo, _ := writeSources(t, allSources())
	ctx := context.Background()

	updated := mineralsCSV + "3,Graphite,Anode material\n"
	snap, err := repo.ReplaceSource(ctx, sources.MineralsFile, []byte(updated))
	require.NoError(t, err)
	require.Len(t, snap.Minerals, 3)

	// The returned snapshot is also the new cached one.
	cached, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Same(t, snap, cached)
}

func TestRepository_ReplaceSourceInvalidName(t *testing.T) {
	repo, _ := writeSources(t, allSources())
	ctx := context.Background()

	before, err := repo.Snapshot(ctx)
	require.NoError(t, err)

	_, err = repo.ReplaceSource(ctx, "evil.csv", []byte("x"))
	require.ErrorIs(t, err, domain.ErrInvalidSourceName)

	// Rejected import leaves the cached snapshot untouched.
	after, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	require.Same(t, before, after)
}

func TestParseCountries_DropsBadIDs(t *testing.T) {
	data := "CountryID,CountryName,GDP_BillionUSD,MiningRevenue_BillionUSD,KeyProjects\n" +
		"not-a-number,Bad,1,1,x\n" +
		"3,Good,2,1,y\n"

	countries, err := parseCountries([]byte(data))
	require.NoError(t, err)
	require.Len(t, countries, 1)
	require.Equal(t, int64(3), countries[0].ID)
}

func TestParseProduction_BlankNumbersAreZero(t *testing.T) {
	data := "CountryID,MineralID,Production_tonnes,ExportValue_BillionUSD\n" +
		"1,1,,\n"

	records, err := parseProduction([]byte(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Zero(t, records[0].ProductionTonnes)
	require.Zero(t, records[0].ExportValueBillionUSD)
}
