package dataset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/sources"
)

// Snapshot is one immutable load of the dataset: the four source tables,
// the two joined views, and the per-source load status. A refresh replaces
// the snapshot wholesale; it is never patched in place.
type Snapshot struct {
	Countries  []domain.Country
	Minerals   []domain.Mineral
	Production []domain.ProductionRecord
	Sites      []domain.Site

	// JoinedProduction and JoinedSites are nil when any of the tables
	// feeding the join is empty. Callers treat that as "insufficient data",
	// not as an error.
	JoinedProduction []domain.ProductionView
	JoinedSites      []domain.SiteView

	// Status records, per canonical source name, whether the table was
	// loaded, missing, or malformed.
	Status map[string]TableStatus

	LoadedAt time.Time
}

// Repository owns the cached dataset snapshot. The cache lifetime is part
// of this object's interface: Snapshot returns the cached value,
// Invalidate drops it, and Reload replaces it and returns the new one.
type Repository struct {
	store  sources.Store
	logger zerolog.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

// NewRepository creates a dataset repository over a source store.
func NewRepository(store sources.Store, logger zerolog.Logger) *Repository {
	return &Repository{
		store:  store,
		logger: logger.With().Str("component", "dataset").Logger(),
	}
}

// Snapshot returns the cached snapshot, loading it on first use. Between
// invalidations all callers share the same read-only snapshot.
func (r *Repository) Snapshot(ctx context.Context) (*Snapshot, error) {
	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return r.Reload(ctx)
}

// Invalidate drops the cached snapshot. The next Snapshot call re-reads
// all sources. Must be called after any source file is replaced outside
// ReplaceSource.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	r.snap = nil
	r.mu.Unlock()
}

// Reload rebuilds the snapshot from the sources and swaps it in wholesale,
// returning the new snapshot. Readers holding the previous snapshot keep a
// consistent view; they never observe a mix of old and new tables.
func (r *Repository) Reload(ctx context.Context) (*Snapshot, error) {
	snap, err := r.build(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	r.logger.Info().
		Int("countries", len(snap.Countries)).
		Int("minerals", len(snap.Minerals)).
		Int("production", len(snap.Production)).
		Int("sites", len(snap.Sites)).
		Int("joined_production", len(snap.JoinedProduction)).
		Int("joined_sites", len(snap.JoinedSites)).
		Msg("dataset reloaded")

	return snap, nil
}

// ReplaceSource writes new bytes for a canonical source and reloads the
// snapshot. Invalid names are rejected before anything is written, leaving
// the cached tables unchanged.
func (r *Repository) ReplaceSource(ctx context.Context, name string, data []byte) (*Snapshot, error) {
	if err := sources.ValidateName(name); err != nil {
		return nil, err
	}
	if err := r.store.Write(ctx, name, data); err != nil {
		return nil, err
	}
	return r.Reload(ctx)
}

// build reads the four sources. Any one source that is absent or fails to
// parse degrades to an empty table rather than blocking the others.
func (r *Repository) build(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Status:   make(map[string]TableStatus, 4),
		LoadedAt: time.Now().UTC(),
	}

	snap.Countries, snap.Status[sources.CountriesFile] = loadTable(ctx, r, sources.CountriesFile, parseCountries)
	snap.Minerals, snap.Status[sources.MineralsFile] = loadTable(ctx, r, sources.MineralsFile, parseMinerals)
	snap.Production, snap.Status[sources.ProductionFile] = loadTable(ctx, r, sources.ProductionFile, parseProduction)
	snap.Sites, snap.Status[sources.SitesFile] = loadTable(ctx, r, sources.SitesFile, parseSites)

	snap.JoinedProduction = joinProduction(snap.Production, snap.Countries, snap.Minerals)
	snap.JoinedSites = joinSites(snap.Sites, snap.Countries, snap.Minerals)

	return snap, nil
}

// loadTable reads and parses one source, mapping absence to StatusMissing
// and parse failure to StatusMalformed with an empty table for both.
func loadTable[T any](ctx context.Context, r *Repository, name string, parse func([]byte) ([]T, error)) ([]T, TableStatus) {
	data, err := r.store.Read(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			r.logger.Warn().Str("source", name).Msg("source file missing; using empty table")
			return nil, StatusMissing
		}
		r.logger.Error().Err(err).Str("source", name).Msg("source read failed; using empty table")
		return nil, StatusMissing
	}

	rows, err := parse(data)
	if err != nil {
		r.logger.Warn().Err(err).Str("source", name).Msg("source unparseable; using empty table")
		return nil, StatusMalformed
	}
	return rows, StatusLoaded
}
