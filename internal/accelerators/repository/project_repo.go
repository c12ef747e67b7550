package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/db"
)

// ProjectRepository persists ProjectRecords in the project_records table.
// Every write is a full-row upsert keyed by (user_id, project_type).
type ProjectRepository struct {
	db db.Querier
}

func NewProjectRepository(q db.Querier) *ProjectRepository {
	return &ProjectRepository{db: q}
}

const selectRecord = `
select id::text, user_id, project_type, current_stage, current_accelerator,
       coalesce(stage_completion, '{}'::jsonb)::text,
       coalesce(stage_data, '{}'::jsonb)::text,
       created_at, updated_at
from project_records
where user_id = $1 and project_type = $2
`

// Get loads the record for (userID, projectType).
func (r *ProjectRepository) Get(ctx context.Context, userID string, pt domain.ProjectType) (*domain.ProjectRecord, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, selectRecord, userID, string(pt)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// GetOrCreate returns the existing record or lazily creates an empty one.
func (r *ProjectRepository) GetOrCreate(ctx context.Context, userID string, pt domain.ProjectType) (*domain.ProjectRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}

	const q = `
insert into project_records (id, user_id, project_type, current_stage, current_accelerator, stage_completion, stage_data)
values ($1, $2, $3, 1, 1, '{}'::jsonb, '{}'::jsonb)
on conflict (user_id, project_type) do nothing
`
	if _, err := r.db.Exec(ctx, q, uuid.New().String(), userID, string(pt)); err != nil {
		return nil, fmt.Errorf("create project record: %w", err)
	}
	return r.Get(ctx, userID, pt)
}

// Save upserts the full record and refreshes rec.UpdatedAt from the store.
func (r *ProjectRepository) Save(ctx context.Context, rec *domain.ProjectRecord) error {
	completion, err := json.Marshal(rec.StageCompletion)
	if err != nil {
		return fmt.Errorf("marshal stage completion: %w", err)
	}
	data, err := json.Marshal(rec.StageData)
	if err != nil {
		return fmt.Errorf("marshal stage data: %w", err)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	const q = `
insert into project_records (id, user_id, project_type, current_stage, current_accelerator, stage_completion, stage_data, updated_at)
values ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, now())
on conflict (user_id, project_type) do update
set current_stage = excluded.current_stage,
    current_accelerator = excluded.current_accelerator,
    stage_completion = excluded.stage_completion,
    stage_data = excluded.stage_data,
    updated_at = now()
returning id::text, created_at, updated_at
`
	var createdAt, updatedAt time.Time
	err = r.db.QueryRow(ctx, q,
		rec.ID, rec.UserID, string(rec.ProjectType),
		rec.CurrentStage, rec.CurrentAccelerator,
		string(completion), string(data),
	).Scan(&rec.ID, &createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("save project record: %w", err)
	}
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	return nil
}

func scanRecord(row pgx.Row) (*domain.ProjectRecord, error) {
	var (
		rec            domain.ProjectRecord
		pt             string
		completionText string
		dataText       string
	)
	if err := row.Scan(
		&rec.ID, &rec.UserID, &pt,
		&rec.CurrentStage, &rec.CurrentAccelerator,
		&completionText, &dataText,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.ProjectType = domain.ProjectType(pt)

	rec.StageCompletion = map[domain.StageKey]domain.Status{}
	if err := json.Unmarshal([]byte(completionText), &rec.StageCompletion); err != nil {
		return nil, fmt.Errorf("decode stage completion: %w", err)
	}
	// Only the completed tag is meaningful; drop anything else that was stored.
	for k, v := range rec.StageCompletion {
		if v != domain.StatusCompleted {
			delete(rec.StageCompletion, k)
		}
	}

	rec.StageData = map[domain.StageKey]domain.Payload{}
	if err := json.Unmarshal([]byte(dataText), &rec.StageData); err != nil {
		return nil, fmt.Errorf("decode stage data: %w", err)
	}
	return &rec, nil
}
