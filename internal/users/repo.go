package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cnpie-acelerador/cnpie-backend/internal/db"
)

var ErrUserNotFound = errors.New("user not found")

type Repo struct {
	db db.Querier
}

func NewRepo(q db.Querier) *Repo {
	return &Repo{db: q}
}

type UpsertUser struct {
	FirebaseUID string
	Email       string
	DisplayName string
}

// Docente is the educator behind a Firebase account, plus the school data
// the wizard pre-fills into the first accelerator.
type Docente struct {
	ID                string    `json:"id"`
	FirebaseUID       string    `json:"firebase_uid"`
	Email             *string   `json:"email,omitempty"`
	DisplayName       *string   `json:"display_name,omitempty"`
	InstitucionNombre *string   `json:"institucion_nombre,omitempty"`
	CodigoModular     *string   `json:"codigo_modular,omitempty"`
	Region            *string   `json:"region,omitempty"`
	UGEL              *string   `json:"ugel,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProfileUpdate carries the optional fields of PUT /me; nil leaves a column as is.
type ProfileUpdate struct {
	DisplayName       *string `json:"display_name"`
	InstitucionNombre *string `json:"institucion_nombre"`
	CodigoModular     *string `json:"codigo_modular"`
	Region            *string `json:"region"`
	UGEL              *string `json:"ugel"`
}

func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (string, error) {
	if u.FirebaseUID == "" {
		return "", fmt.Errorf("firebase_uid required")
	}

	const q = `
insert into users (firebase_uid, email, display_name, updated_at)
values ($1, nullif($2,''), nullif($3,''), now())
on conflict (firebase_uid) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(users.display_name, excluded.display_name),
  updated_at = now()
returning id::text;
`
	var id string
	if err := r.db.QueryRow(ctx, q, u.FirebaseUID, u.Email, u.DisplayName).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

const selectDocente = `
select id::text, firebase_uid, email, display_name, institucion_nombre,
       codigo_modular, region, ugel, created_at, updated_at
from users
`

func (r *Repo) Get(ctx context.Context, id string) (*Docente, error) {
	return scanDocente(r.db.QueryRow(ctx, selectDocente+"where id = $1::uuid", id))
}

func (r *Repo) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*Docente, error) {
	const q = `
update users
set
  display_name = coalesce($2, display_name),
  institucion_nombre = coalesce($3, institucion_nombre),
  codigo_modular = coalesce($4, codigo_modular),
  region = coalesce($5, region),
  ugel = coalesce($6, ugel),
  updated_at = now()
where id = $1::uuid
returning id::text, firebase_uid, email, display_name, institucion_nombre,
          codigo_modular, region, ugel, created_at, updated_at;
`
	return scanDocente(r.db.QueryRow(ctx, q, id, p.DisplayName, p.InstitucionNombre, p.CodigoModular, p.Region, p.UGEL))
}

func scanDocente(row pgx.Row) (*Docente, error) {
	var d Docente
	err := row.Scan(&d.ID, &d.FirebaseUID, &d.Email, &d.DisplayName, &d.InstitucionNombre,
		&d.CodigoModular, &d.Region, &d.UGEL, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
