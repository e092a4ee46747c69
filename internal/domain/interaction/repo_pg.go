package interaction

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medtrack/medtrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const pairCols = `id, low_id, high_id, severity, description, effects, management, created_at, updated_at`

func scanPair(row pgx.Row) (*Pair, error) {
	var p Pair
	err := row.Scan(&p.ID, &p.LowID, &p.HighID, &p.Severity, &p.Description, &p.Effects, &p.Management, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Pair) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO interaction_pair (low_id, high_id, severity, description, effects, management)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		p.LowID, p.HighID, p.Severity, p.Description, p.Effects, p.Management).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePair
		}
		return err
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Pair, error) {
	return scanPair(r.conn(ctx).QueryRow(ctx, `SELECT `+pairCols+` FROM interaction_pair WHERE id = $1`, id))
}

func (r *repoPG) GetByPair(ctx context.Context, low, high int64) (*Pair, error) {
	return scanPair(r.conn(ctx).QueryRow(ctx,
		`SELECT `+pairCols+` FROM interaction_pair WHERE low_id = $1 AND high_id = $2`, low, high))
}

func (r *repoPG) ListForMedicine(ctx context.Context, medicineID int64) ([]*Pair, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+pairCols+` FROM interaction_pair
		WHERE low_id = $1 OR high_id = $1
		ORDER BY id`, medicineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.ID, &p.LowID, &p.HighID, &p.Severity, &p.Description, &p.Effects, &p.Management, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Pair) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE interaction_pair
		SET low_id=$2, high_id=$3, severity=$4, description=$5, effects=$6, management=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.LowID, p.HighID, p.Severity, p.Description, p.Effects, p.Management)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePair
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM interaction_pair WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
