package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cnpie-acelerador/cnpie-backend/internal/db"
)

type Repo struct {
	db db.Querier
}

func NewRepo(q db.Querier) *Repo {
	return &Repo{db: q}
}

const fileColumns = `id::text, user_id::text, project_type, stage_key, object_key, file_name, content_type, size_bytes, public_url, created_at`

// Insert stores f and fills its id and created_at from the row.
func (r *Repo) Insert(ctx context.Context, f *File) error {
	const q = `
insert into files (user_id, project_type, stage_key, object_key, file_name, content_type, size_bytes, public_url)
values ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
returning id::text, created_at;
`
	err := r.db.QueryRow(ctx, q,
		f.UserID, f.ProjectType, f.StageKey, f.ObjectKey, f.FileName, f.ContentType, f.SizeBytes, f.PublicURL,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// List returns the user's files, newest first. An empty projectType lists all.
func (r *Repo) List(ctx context.Context, userID, projectType string) ([]*File, error) {
	rows, err := r.db.Query(ctx, `
select `+fileColumns+`
from files
where user_id = $1::uuid and ($2 = '' or project_type = $2)
order by created_at desc
`, userID, projectType)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	out := []*File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, userID, id string) (*File, error) {
	f, err := scanFile(r.db.QueryRow(ctx,
		`select `+fileColumns+` from files where id = $1::uuid and user_id = $2::uuid`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes the row only; the stored object is left in place.
func (r *Repo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `delete from files where id = $1::uuid and user_id = $2::uuid`, id, userID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFile(row pgx.Row) (*File, error) {
	var f File
	if err := row.Scan(&f.ID, &f.UserID, &f.ProjectType, &f.StageKey, &f.ObjectKey,
		&f.FileName, &f.ContentType, &f.SizeBytes, &f.PublicURL, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}
