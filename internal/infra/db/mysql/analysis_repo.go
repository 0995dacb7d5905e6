package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/datashield/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_records (
  id             VARCHAR(36)  NOT NULL PRIMARY KEY,
  kind           VARCHAR(16)  NOT NULL,
  input          TEXT         NOT NULL,
  summary        TEXT         NOT NULL,
  indicators     JSON         NOT NULL,
  verdict        TEXT         NOT NULL,
  caller_address VARCHAR(64)  NOT NULL,
  created_at     DATETIME(6)  NOT NULL,
  INDEX idx_analysis_records_created_at (created_at)
);`

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// EnsureSchema creates the records table when missing.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save appends one record. Rows are never updated.
func (r *AnalysisRepository) Save(ctx context.Context, rec *domain.Record) error {
	const op = "mysql.Save"
	const q = `
INSERT INTO analysis_records
(id, kind, input, summary, indicators, verdict, caller_address, created_at)
VALUES (?,?,?,?,?,?,?,?);`

	indicators, err := encodeIndicators(rec.Indicators)
	if err != nil {
		return domain.E(domain.KindPersistenceFailed, op, err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, q,
		rec.ID, string(rec.Kind), rec.Input, rec.Summary, indicators, rec.Verdict,
		stringOrDash(rec.CallerAddress), created,
	)
	if err != nil {
		return domain.E(domain.KindPersistenceFailed, op, err)
	}
	return nil
}

// Paginate with offset + limit (classic pagination), newest first
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	const op = "mysql.Paginate"
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
LIMIT ? OFFSET ?;`

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
