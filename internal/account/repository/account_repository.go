package repository

import (
	"context"
	"fmt"

	"chat_delivery_service/internal/account/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AccountRepository definition get account profile info
type AccountRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Account, error)
	ActiveIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type accountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository create a AccountRepository
func NewAccountRepository(db *pgxpool.Pool) AccountRepository {
	return &accountRepository{db: db}
}

// Schema accounts table, 同一個 database 內 conversation 搜尋也會 join 這張表
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id         UUID PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	username   TEXT NOT NULL UNIQUE,
	email      TEXT NOT NULL UNIQUE,
	image      TEXT,
	status     INT  NOT NULL DEFAULT 0
)`

// EnsureSchema create the accounts table when the account service has not
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, Schema)
	return err
}

const selectAccount = "SELECT id::text, first_name, last_name, username, email, image, status FROM accounts"

func (r *accountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Account, error) {
	if len(ids) == 0 {
		return []domain.Account{}, nil
	}
	rows, err := r.db.Query(ctx, selectAccount+" WHERE id = ANY($1::uuid[])", toStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	return scanAccounts(rows)
}

func (r *accountRepository) ActiveIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	rows, err := r.db.Query(ctx,
		"SELECT id::text FROM accounts WHERE id = ANY($1::uuid[]) AND status <> $2",
		toStrings(ids), int(domain.AccountStatusDelete))
	if err != nil {
		return nil, fmt.Errorf("query active accounts: %w", err)
	}
	return scanIDs(rows)
}

func scanAccounts(rows pgx.Rows) ([]domain.Account, error) {
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var (
			a      domain.Account
			id     string
			status int
		)
		if err := rows.Scan(&id, &a.FirstName, &a.LastName, &a.Username, &a.Email, &a.Image, &status); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		a.ID = parsed
		a.Status = domain.AccountStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()

	out := []uuid.UUID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, rows.Err()
}

func toStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
