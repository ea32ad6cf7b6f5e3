package portfolios

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, ownerID, id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	const query = `
SELECT data, created_at, updated_at
FROM portfolios
WHERE id = $1 AND owner_id = $2
LIMIT 1`
	var raw []byte
	var createdAt, updatedAt int64
	err := r.DB.QueryRowContext(ctx, query, id, ownerID).Scan(&raw, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	data, err := unmarshalData(raw)
	if err != nil {
		return nil, err
	}
	return withMeta(data, ownerID, id, createdAt, updatedAt), nil
}

// Merge relies on jsonb concatenation, which only replaces top-level keys.
func (r *PGRepo) Merge(ctx context.Context, ownerID, id string, patch Patch, updatedAt int64) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	payload, err := marshalJSONB(patch.Sanitized())
	if err != nil {
		return err
	}
	const query = `
UPDATE portfolios
SET data = data || $3::jsonb,
    updated_at = GREATEST(updated_at, $4)
WHERE id = $1 AND owner_id = $2`
	res, err := r.DB.ExecContext(ctx, query, id, ownerID, payload, updatedAt)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PGRepo) Create(ctx context.Context, ownerID, id string, data Record, now int64) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: id must be a uuid", ErrInvalidInput)
	}
	payload, err := marshalJSONB(stripMeta(data))
	if err != nil {
		return err
	}
	const query = `
INSERT INTO portfolios (id, owner_id, data, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, $4, $4)`
	_, err = r.DB.ExecContext(ctx, query, id, ownerID, payload, now)
	return err
}

func (r *PGRepo) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PGRepo) List(ctx context.Context, ownerID string) ([]Record, error) {
	const query = `
SELECT id, data, created_at, updated_at
FROM portfolios
WHERE owner_id = $1
ORDER BY updated_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var id string
		var raw []byte
		var createdAt, updatedAt int64
		if err := rows.Scan(&id, &raw, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		data, err := unmarshalData(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, withMeta(data, ownerID, id, createdAt, updatedAt))
	}
	return out, rows.Err()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}

func unmarshalData(raw []byte) (Record, error) {
	data := Record{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode portfolio data: %w", err)
	}
	return data, nil
}
