package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/config"
	"github.com/educa-pb/demandas-service/internal/domain"
)

// ChamadoStore is the system of record for tickets. It only exposes whole
// collection reads and writes; Update runs a read-modify-write under the
// store's single-writer lock.
type ChamadoStore interface {
	ReadAll(ctx context.Context) ([]domain.Chamado, error)
	WriteAll(ctx context.Context, chamados []domain.Chamado) error
	Update(ctx context.Context, fn MutateFunc) error
	// Version changes whenever the stored collection changes.
	Version(ctx context.Context) (int64, error)
}

// MutateFunc receives the current collection and returns the one to persist.
// Returning an error aborts the write.
type MutateFunc func(chamados []domain.Chamado) ([]domain.Chamado, error)

// DegradationRecorder is notified when a read falls back to an empty collection.
type DegradationRecorder interface {
	RecordStoreDegraded(reason string)
}

// NewChamadoStore selects the backend named by cfg.Driver. The postgres driver
// needs an open pool.
func NewChamadoStore(cfg config.StoreConfig, pool *pgxpool.Pool, logger *zap.Logger, recorder DegradationRecorder) (ChamadoStore, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		if pool == nil {
			return nil, errors.New("postgres store selected but no database connection is open")
		}
		logger.Info("using postgres chamado store")
		return NewPostgresChamadoStore(pool, logger, recorder), nil
	case config.StoreDriverFile, "":
		logger.Info("using file chamado store", zap.String("path", cfg.ChamadosPath))
		return NewFileChamadoStore(cfg.ChamadosPath, logger, recorder), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
