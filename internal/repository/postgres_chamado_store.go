package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/domain"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresChamadoStore keeps each ticket as a JSONB document. Ordering is
// preserved through the posicao column and every write bumps chamados_versao.
type PostgresChamadoStore struct {
	pool     *pgxpool.Pool
	logger   *zap.Logger
	recorder DegradationRecorder
}

// NewPostgresChamadoStore instantiates the store.
func NewPostgresChamadoStore(pool *pgxpool.Pool, logger *zap.Logger, recorder DegradationRecorder) *PostgresChamadoStore {
	return &PostgresChamadoStore{pool: pool, logger: logger, recorder: recorder}
}

func (s *PostgresChamadoStore) ReadAll(ctx context.Context) ([]domain.Chamado, error) {
	return s.readDocuments(ctx, s.pool)
}

func (s *PostgresChamadoStore) WriteAll(ctx context.Context, chamados []domain.Chamado) error {
	return s.Update(ctx, func([]domain.Chamado) ([]domain.Chamado, error) {
		return chamados, nil
	})
}

// Update locks the version row so concurrent writers, including other
// processes, serialize on it. Rows whose document cannot be decoded are
// invisible to fn and are written back untouched after the new collection.
func (s *PostgresChamadoStore) Update(ctx context.Context, fn MutateFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var atualizado time.Time
	if err := tx.QueryRow(ctx, `SELECT atualizado FROM chamados_versao WHERE singleton FOR UPDATE`).Scan(&atualizado); err != nil {
		return fmt.Errorf("lock chamados: %w", err)
	}

	stored, err := queryRows(ctx, tx)
	if err != nil {
		return err
	}
	current, unreadable := s.decodeRows(stored)
	next, err := fn(current)
	if err != nil {
		return err
	}
	rows, err := planRows(next, unreadable)
	if err != nil {
		return err
	}
	if err := replaceAll(ctx, tx, rows); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresChamadoStore) Version(ctx context.Context) (int64, error) {
	var atualizado time.Time
	if err := s.pool.QueryRow(ctx, `SELECT atualizado FROM chamados_versao WHERE singleton`).Scan(&atualizado); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("read chamados version: %w", err)
	}
	return atualizado.UnixNano(), nil
}

// storedRow mirrors one chamados row.
type storedRow struct {
	posicao   int
	id        string
	inep      string
	documento []byte
}

func (s *PostgresChamadoStore) readDocuments(ctx context.Context, q pgQuerier) ([]domain.Chamado, error) {
	stored, err := queryRows(ctx, q)
	if err != nil {
		return nil, err
	}
	chamados, _ := s.decodeRows(stored)
	return chamados, nil
}

func queryRows(ctx context.Context, q pgQuerier) ([]storedRow, error) {
	rows, err := q.Query(ctx, `SELECT posicao, id, inep, documento FROM chamados ORDER BY posicao ASC`)
	if err != nil {
		return nil, fmt.Errorf("query chamados: %w", err)
	}
	defer rows.Close()

	var result []storedRow
	for rows.Next() {
		var row storedRow
		if err := rows.Scan(&row.posicao, &row.id, &row.inep, &row.documento); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// decodeRows splits stored rows into tickets and the rows that failed to
// decode, keeping both in position order.
func (s *PostgresChamadoStore) decodeRows(stored []storedRow) ([]domain.Chamado, []storedRow) {
	chamados := []domain.Chamado{}
	var unreadable []storedRow
	for _, row := range stored {
		var chamado domain.Chamado
		if err := json.Unmarshal(row.documento, &chamado); err != nil {
			s.logger.Warn("skipping unreadable chamado document", zap.Int("posicao", row.posicao), zap.String("id", row.id), zap.Error(err))
			if s.recorder != nil {
				s.recorder.RecordStoreDegraded("invalid_document")
			}
			unreadable = append(unreadable, row)
			continue
		}
		chamados = append(chamados, chamado)
	}
	return chamados, unreadable
}

// planRows lays out the rows to insert: the tickets in order, then the
// unreadable rows with their original columns and documents.
func planRows(chamados []domain.Chamado, unreadable []storedRow) ([]storedRow, error) {
	rows := make([]storedRow, 0, len(chamados)+len(unreadable))
	for _, chamado := range chamados {
		doc, err := json.Marshal(chamado)
		if err != nil {
			return nil, fmt.Errorf("encode chamado %s: %w", chamado.ID, err)
		}
		rows = append(rows, storedRow{posicao: len(rows), id: chamado.ID, inep: chamado.INEP.String(), documento: doc})
	}
	for _, row := range unreadable {
		row.posicao = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}

func replaceAll(ctx context.Context, tx pgx.Tx, rows []storedRow) error {
	if _, err := tx.Exec(ctx, `DELETE FROM chamados`); err != nil {
		return fmt.Errorf("clear chamados: %w", err)
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`INSERT INTO chamados (id, inep, posicao, documento) VALUES ($1,$2,$3,$4)`,
			row.id, row.inep, row.posicao, row.documento)
	}
	batch.Queue(`UPDATE chamados_versao SET atualizado = clock_timestamp() WHERE singleton`)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chamados: %w", err)
	}
	return nil
}
