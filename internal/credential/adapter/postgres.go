package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"promogen-go/internal/credential"
)

// PostgresStore persists credentials in PostgreSQL. The table is created
// on Initialize if absent; schema migrations beyond that belong to the
// credential management service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Initialize(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS provider_credentials (
			id              TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			provider        TEXT NOT NULL,
			secret_ref      TEXT NOT NULL,
			is_default      BOOLEAN NOT NULL DEFAULT FALSE,
			status          TEXT NOT NULL DEFAULT 'unchecked',
			is_active       BOOLEAN NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_provider_credentials_org
			ON provider_credentials (organization_id, provider);
	`)
	return err
}

func (p *PostgresStore) Close() error { return p.db.Close() }

func (p *PostgresStore) ListCredentials(ctx context.Context, organizationID, provider string) ([]*credential.Credential, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, organization_id, provider, secret_ref, is_default, status, is_active, created_at
		FROM provider_credentials
		WHERE organization_id = $1 AND ($2 = '' OR provider = $2)
		ORDER BY created_at, id
	`, organizationID, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCredentials(rows)
}

func (p *PostgresStore) UpdateStatus(ctx context.Context, id string, status credential.Status) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE provider_credentials SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("credential %s not found", id)
	}
	return nil
}

func (p *PostgresStore) ListAll(ctx context.Context) ([]*credential.Credential, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, organization_id, provider, secret_ref, is_default, status, is_active, created_at
		FROM provider_credentials
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCredentials(rows)
}

func (p *PostgresStore) Save(ctx context.Context, cred *credential.Credential) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO provider_credentials
			(id, organization_id, provider, secret_ref, is_default, status, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			secret_ref = EXCLUDED.secret_ref,
			is_default = EXCLUDED.is_default,
			status     = EXCLUDED.status,
			is_active  = EXCLUDED.is_active
	`, cred.ID, cred.OrganizationID, cred.Provider, cred.SecretRef,
		cred.IsDefault, string(cred.Status), cred.IsActive, cred.CreatedAt)
	return err
}

func scanCredentials(rows *sql.Rows) ([]*credential.Credential, error) {
	var creds []*credential.Credential
	for rows.Next() {
		var c credential.Credential
		var status string
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Provider, &c.SecretRef,
			&c.IsDefault, &status, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Status = credential.Status(status)
		creds = append(creds, &c)
	}
	return creds, rows.Err()
}
