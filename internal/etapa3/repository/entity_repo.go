package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	acceldomain "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/db"
	"github.com/cnpie-acelerador/cnpie-backend/internal/etapa3/domain"
)

// EntityRepository stores stage-3 sub-entities in etapa3_entities, one row
// per (project_id, entity).
type EntityRepository struct {
	db db.Querier
}

func NewEntityRepository(q db.Querier) *EntityRepository {
	return &EntityRepository{db: q}
}

const entityColumns = `project_id::text, entity, status, coalesce(data, '{}'::jsonb)::text, completed_at, created_at, updated_at`

func (r *EntityRepository) List(ctx context.Context, projectID string) ([]*domain.Entity, error) {
	rows, err := r.db.Query(ctx, `select `+entityColumns+` from etapa3_entities where project_id = $1::uuid order by entity`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list etapa3 entities: %w", err)
	}
	defer rows.Close()

	var out []*domain.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EntityRepository) Get(ctx context.Context, projectID string, kind domain.Kind) (*domain.Entity, error) {
	e, err := scanEntity(r.db.QueryRow(ctx,
		`select `+entityColumns+` from etapa3_entities where project_id = $1::uuid and entity = $2`,
		projectID, string(kind)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return e, err
}

// Upsert writes the full entity and refreshes its timestamps from the row.
func (r *EntityRepository) Upsert(ctx context.Context, e *domain.Entity) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("marshal etapa3 data: %w", err)
	}

	const q = `
insert into etapa3_entities (project_id, entity, status, data, completed_at, updated_at)
values ($1::uuid, $2, $3, $4::jsonb, $5, now())
on conflict (project_id, entity) do update
set
  status = excluded.status,
  data = excluded.data,
  completed_at = excluded.completed_at,
  updated_at = now()
returning created_at, updated_at;
`
	return r.db.QueryRow(ctx, q, e.ProjectID, string(e.Kind), string(e.Status), string(data), e.CompletedAt).
		Scan(&e.CreatedAt, &e.UpdatedAt)
}

func scanEntity(row pgx.Row) (*domain.Entity, error) {
	var (
		e           domain.Entity
		kind        string
		status      string
		rawData     string
		completedAt *time.Time
	)
	if err := row.Scan(&e.ProjectID, &kind, &status, &rawData, &completedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Kind = domain.Kind(kind)
	e.Status = domain.Status(status)
	e.CompletedAt = completedAt

	data, err := acceldomain.ParsePayload([]byte(rawData))
	if err != nil {
		return nil, fmt.Errorf("decode etapa3 data for %s: %w", kind, err)
	}
	e.Data = data
	return &e, nil
}
