// Package sources provides access to the four tabular source files that
// feed the dataset repository. Backends include the local filesystem and
// S3-compatible object storage.
package sources

import (
	"context"
	"fmt"

	"github.com/afrominerals/atlas/internal/domain"
)

// Canonical source file names. Uploads are accepted under exactly these
// names; anything else is rejected without side effects.
const (
	CountriesFile  = "countries.csv"
	MineralsFile   = "minerals.csv"
	ProductionFile = "production_stats.csv"
	SitesFile      = "sites.csv"
)

// Names lists the canonical source names in load order.
func Names() []string {
	return []string{CountriesFile, MineralsFile, ProductionFile, SitesFile}
}

// ValidateName checks a name against the canonical source names.
func ValidateName(name string) error {
	switch name {
	case CountriesFile, MineralsFile, ProductionFile, SitesFile:
		return nil
	}
	return fmt.Errorf("%w: %q (expected one of countries.csv, minerals.csv, production_stats.csv, sites.csv)",
		domain.ErrInvalidSourceName, name)
}

// Store reads and writes the canonical source files.
type Store interface {
	// Read returns the raw bytes of a canonical source.
	// Returns domain.ErrSourceNotFound when the source does not exist.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write replaces a canonical source with the given bytes, verbatim.
	// Non-canonical names fail with domain.ErrInvalidSourceName before any
	// write happens. The caller is responsible for invalidating the dataset
	// cache afterwards.
	Write(ctx context.Context, name string, data []byte) error
}
