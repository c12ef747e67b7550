package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cnpie-acelerador/cnpie-backend/config"
	"github.com/cnpie-acelerador/cnpie-backend/internal/db"
	"github.com/cnpie-acelerador/cnpie-backend/internal/storage/postgres"
)

// Databases holds both handles on the same Postgres database: the pgx pool
// for the record, etapa3, users and files repositories, and database/sql
// for progress sessions and surveys.
type Databases struct {
	PG  *db.DB
	SQL *sql.DB
}

func OpenDatabases(ctx context.Context, cfg config.DatabaseConfig) (*Databases, error) {
	pg, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := postgres.NewConnection(ctx, cfg)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("database/sql: %w", err)
	}
	return &Databases{PG: pg, SQL: sqlDB}, nil
}

func (d *Databases) Ping(ctx context.Context) error {
	if err := d.PG.Pool.Ping(ctx); err != nil {
		return err
	}
	return d.SQL.PingContext(ctx)
}

func (d *Databases) Close() {
	d.PG.Close()
	_ = d.SQL.Close()
}
