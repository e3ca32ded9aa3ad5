// Package source loads complete deal snapshots for the aggregation engine.
// A source returns either every record of a snapshot or an error, never a partial set.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/straye-as/sales-dashboard-api/internal/config"
	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"github.com/straye-as/sales-dashboard-api/internal/storage"
	"go.uber.org/zap"
)

// ErrSourceUnavailable wraps every failure to load a snapshot
var ErrSourceUnavailable = errors.New("deal source unavailable")

// Source loads the current deal snapshot
type Source interface {
	Load(ctx context.Context) ([]domain.DealRecord, error)
	Name() string
}

// Deps holds the clients a source may be built on. Only the one matching
// the configured mode needs to be set.
type Deps struct {
	Storage       storage.Storage
	Snapshots     SnapshotFinder
	Records       RecordLister
	DataWarehouse DealReader
	Zoho          DealReader
}

// New selects the source implementation for the configured mode
func New(cfg *config.SourceConfig, deps Deps, logger *zap.Logger) (Source, error) {
	switch cfg.Mode {
	case "file", "":
		if deps.Storage == nil {
			return nil, fmt.Errorf("file source requires storage")
		}
		return NewFileSource(deps.Storage, cfg.SnapshotKey, logger), nil
	case "database":
		if deps.Snapshots == nil || deps.Records == nil {
			return nil, fmt.Errorf("database source requires snapshot and record repositories")
		}
		return NewDatabaseSource(deps.Snapshots, deps.Records), nil
	case "datawarehouse":
		if deps.DataWarehouse == nil {
			return nil, fmt.Errorf("datawarehouse source requires a data warehouse client")
		}
		return NewReaderSource("datawarehouse", deps.DataWarehouse), nil
	case "zoho":
		if deps.Zoho == nil {
			return nil, fmt.Errorf("zoho source requires a zoho client")
		}
		return NewReaderSource("zoho", deps.Zoho), nil
	default:
		return nil, fmt.Errorf("unsupported source mode: %s", cfg.Mode)
	}
}

func unavailable(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, name, err)
}
