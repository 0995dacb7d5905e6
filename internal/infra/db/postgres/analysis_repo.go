package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/datashield/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_records (
  id             TEXT        PRIMARY KEY,
  kind           TEXT        NOT NULL,
  input          TEXT        NOT NULL,
  summary        TEXT        NOT NULL,
  indicators     JSONB       NOT NULL DEFAULT '[]'::jsonb,
  verdict        TEXT        NOT NULL,
  caller_address TEXT        NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_records_created_at ON analysis_records (created_at DESC);`

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save appends one record
func (r *AnalysisRepository) Save(ctx context.Context, rec *domain.Record) error {
	const op = "postgres.Save"
	const q = `
INSERT INTO analysis_records
(id, kind, input, summary, indicators, verdict, caller_address, created_at)
VALUES ($1,$2,$3,$4,$5::jsonb,$6,$7,$8);`

	indicators, err := encodeIndicators(rec.Indicators)
	if err != nil {
		return domain.E(domain.KindPersistenceFailed, op, err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, q,
		rec.ID, string(rec.Kind), rec.Input, rec.Summary, indicators, rec.Verdict,
		stringOrDash(rec.CallerAddress), created,
	); err != nil {
		return domain.E(domain.KindPersistenceFailed, op, err)
	}
	return nil
}

// Paginate with offset + limit, newest first
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	const op = "postgres.Paginate"
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, kind, input, summary, indicators, verdict, caller_address, created_at
FROM analysis_records
ORDER BY created_at DESC
LIMIT $1 OFFSET $2;`

	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, domain.E(domain.KindPersistenceFailed, op, err)
	}
	defer rows.Close()

	out := []*domain.Record{}
	for rows.Next() {
		var rec domain.Record
		var indicators []byte
		if err := rows.Scan(
			&rec.ID, &rec.Kind, &rec.Input, &rec.Summary, &indicators, &rec.Verdict,
			&rec.CallerAddress, &rec.CreatedAt,
		); err != nil {
			return nil, domain.E(domain.KindPersistenceFailed, op, err)
		}
		if rec.Indicators, err = decodeIndicators(indicators); err != nil {
			return nil, domain.E(domain.KindPersistenceFailed, op, err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.E(domain.KindPersistenceFailed, op, err)
	}
	return out, nil
}
