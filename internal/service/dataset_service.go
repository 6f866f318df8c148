package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/afrominerals/atlas/internal/dataset"
	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/geo"
)

// DatasetService exposes the dataset snapshot and the privileged source
// import. The handler layer, not this service, enforces that import is
// reachable only from Administrator sessions.
type DatasetService struct {
	repo    *dataset.Repository
	reloads prometheus.Counter
	logger  zerolog.Logger
}

// NewDatasetService creates a new DatasetService. reloads may be nil when
// metrics are disabled.
func NewDatasetService(repo *dataset.Repository, reloads prometheus.Counter, logger zerolog.Logger) *DatasetService {
	return &DatasetService{
		repo:    repo,
		reloads: reloads,
		logger:  logger.With().Str("service", "dataset").Logger(),
	}
}

// Snapshot returns the current cached dataset snapshot.
func (s *DatasetService) Snapshot(ctx context.Context) (*dataset.Snapshot, error) {
	return s.repo.Snapshot(ctx)
}

// ImportSource replaces one canonical source file and reloads the dataset,
// returning the fresh snapshot. A non-canonical name is rejected with
// domain.ErrInvalidSourceName before anything is written, so the cached
// tables stay unchanged.
func (s *DatasetService) ImportSource(ctx context.Context, name string, data []byte) (*dataset.Snapshot, error) {
	snap, err := s.repo.ReplaceSource(ctx, name, data)
	if err != nil {
		return nil, err
	}

	if s.reloads != nil {
		s.reloads.Inc()
	}
	s.logger.Info().Str("source", name).Int("bytes", len(data)).Msg("source imported")
	return snap, nil
}

// Reload discards the cached snapshot and rebuilds it from the sources.
func (s *DatasetService) Reload(ctx context.Context) (*dataset.Snapshot, error) {
	snap, err := s.repo.Reload(ctx)
	if err != nil {
		return nil, err
	}
	if s.reloads != nil {
		s.reloads.Inc()
	}
	return snap, nil
}

// MineralNames returns the distinct mineral names for filter dropdowns.
func (s *DatasetService) MineralNames(ctx context.Context) ([]string, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(snap.Minerals))
	for _, m := range snap.Minerals {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

// MapModel builds the site map for a mineral filter ("All" for every
// mineral). Returns nil when no joined site data is available.
func (s *DatasetService) MapModel(ctx context.Context, mineralFilter string) (*domain.MapModel, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return geo.Build(snap.JoinedSites, mineralFilter), nil
}
