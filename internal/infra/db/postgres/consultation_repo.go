package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"justice-agent-tools/internal/domain/model"
	"justice-agent-tools/internal/domain/ports/repository"
)

// Ensure compile-time conformance
var _ repository.ConsultationRepository = (*consultationRepo)(nil)

type consultationRepo struct {
	pool *pgxpool.Pool
}

func NewConsultationRepo(pool *pgxpool.Pool) *consultationRepo {
	return &consultationRepo{pool: pool}
}

const uniqueViolation = "23505"

func (r *consultationRepo) Save(ctx context.Context, c *model.Consultation) error {
	const q = `
INSERT INTO consultations (id, tool, identifier, search_type, status, code, total_processes, result, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	_, err := r.pool.Exec(ctx, q,
		c.ID, c.Tool, c.Identifier, string(c.SearchType), c.Status, c.Code,
		c.TotalProcesses, c.Result, c.DurationMs, c.CreatedAt)
	if err != nil {
		// re-saving the same outcome is idempotent
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil
		}
		return err
	}
	return nil
}

func (r *consultationRepo) ListRecent(ctx context.Context, limit int) ([]*model.Consultation, error) {
	const q = `
SELECT id, tool, identifier, search_type, status, code, total_processes, result, duration_ms, created_at
FROM consultations
ORDER BY created_at DESC
LIMIT $1;`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *consultationRepo) LatestCompletedByIdentifier(ctx context.Context, identifier string, since time.Time) (*model.Consultation, error) {
	const q = `
SELECT id, tool, identifier, search_type, status, code, total_processes, result, duration_ms, created_at
FROM consultations
WHERE identifier = $1 AND status = 'success' AND created_at >= $2
ORDER BY created_at DESC
LIMIT 1;`

	row := r.pool.QueryRow(ctx, q, identifier, since)
	c, err := scanConsultation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *consultationRepo) CountByToolStatus(ctx context.Context) (map[string]map[string]int, error) {
	const q = `
SELECT tool, status, COUNT(*)
FROM consultations
GROUP BY tool, status;`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var tool, status string
		var n int
		if err := rows.Scan(&tool, &status, &n); err != nil {
			return nil, err
		}
		if out[tool] == nil {
			out[tool] = make(map[string]int)
		}
		out[tool][status] = n
	}
	return out, rows.Err()
}

func scanConsultation(row pgx.Row) (*model.Consultation, error) {
	var c model.Consultation
	var searchType string
	err := row.Scan(
		&c.ID, &c.Tool, &c.Identifier, &searchType, &c.Status, &c.Code,
		&c.TotalProcesses, &c.Result, &c.DurationMs, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.SearchType = model.SearchType(searchType)
	return &c, nil
}
