package storage

// sqlite.go: journal de auditoría de operaciones.
//
// Tablas:
//   operations: una fila por operación on-chain (open/rebalance/close) y por
//                request de analytics (emulate/optimize), con éxito o no.
//
// El journal nunca alimenta el ciclo de vida: el estado se reconstruye
// siempre desde el catálogo y la posición on-chain.
// Prune automático al arrancar: filas con más de 90 días.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tezfolio/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
    id           TEXT PRIMARY KEY,   -- UUID local
    kind         TEXT    NOT NULL,   -- open | rebalance | close | emulate | optimize
    owner        TEXT    NOT NULL DEFAULT '',
    contract     TEXT    NOT NULL DEFAULT '',
    op_hash      TEXT    NOT NULL DEFAULT '',
    payload      TEXT    NOT NULL DEFAULT '',
    result_count INTEGER NOT NULL DEFAULT 0,
    success      INTEGER NOT NULL DEFAULT 0,
    error        TEXT    NOT NULL DEFAULT '',
    started_at   DATETIME NOT NULL,
    finished_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_started ON operations(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_operations_owner   ON operations(owner);
`

const retention = 90 * 24 * time.Hour

// SQLiteJournal implementa ports.Journal usando SQLite (pure Go, sin CGo).
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal abre (o crea) la base de datos en la ruta dada,
// aplica el schema y limpia entradas antiguas.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{db: db}
	j.pruneOld(context.Background())
	return j, nil
}

// RecordOperation persiste una operación. Asigna ID y timestamps si faltan.
func (j *SQLiteJournal) RecordOperation(ctx context.Context, rec domain.OperationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if rec.StartedAt.IsZero() {
		rec.StartedAt = now
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = now
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO operations
			(id, kind, owner, contract, op_hash, payload, result_count, success, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), rec.Owner, rec.Contract, rec.OpHash, rec.Payload,
		rec.ResultCount, boolToInt(rec.Success), rec.Error,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordOperation: insert: %w", err)
	}
	return nil
}

// RecentOperations devuelve las últimas operaciones, más recientes primero.
func (j *SQLiteJournal) RecentOperations(ctx context.Context, limit int) ([]domain.OperationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, kind, owner, contract, op_hash, payload, result_count, success, error, started_at, finished_at
		FROM operations
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentOperations: query: %w", err)
	}
	defer rows.Close()

	var out []domain.OperationRecord
	for rows.Next() {
		var (
			rec     domain.OperationRecord
			kind    string
			success int
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.Owner, &rec.Contract, &rec.OpHash, &rec.Payload,
			&rec.ResultCount, &success, &rec.Error, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("storage.RecentOperations: scan: %w", err)
		}
		rec.Kind = domain.OperationKind(kind)
		rec.Success = success == 1
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.RecentOperations: rows: %w", err)
	}
	return out, nil
}

// Close cierra la conexión a la base de datos.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// pruneOld elimina entradas fuera del período de retención.
func (j *SQLiteJournal) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retention)
	_, _ = j.db.ExecContext(ctx, `DELETE FROM operations WHERE started_at < ?`, cutoff)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
