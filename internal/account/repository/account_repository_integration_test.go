//go:build integration

package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"chat_delivery_service/internal/account/domain"
	"chat_delivery_service/pkg/database"
	"chat_delivery_service/pkg/logger"
	testtool "chat_delivery_service/pkg/test_tool"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupAccounts(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	logger.SetNewNop()

	container, host, port, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "chat",
			"POSTGRES_PASSWORD": "chat",
			"POSTGRES_DB":       "accounts_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	p, _ := strconv.Atoi(port)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    database.PostgresDSN(host, p, "chat", "chat", "accounts_test", "disable"),
		RetryCount:    5,
		RetryInterval: 2,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool))
	return pool
}

func insertAccount(t *testing.T, pool *pgxpool.Pool, a domain.Account) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO accounts (id, first_name, last_name, username, email, image, status) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID.String(), a.FirstName, a.LastName, a.Username, a.Email, a.Image, int(a.Status))
	require.NoError(t, err)
}

func TestAccountRepository(t *testing.T) {
	pool := setupAccounts(t)
	repo := NewAccountRepository(pool)
	ctx := context.Background()

	img := "avatars/ann.png"
	ann := domain.Account{ID: uuid.New(), FirstName: "Ann", LastName: "Lee", Username: "ann_lee", Email: "ann@example.com", Image: &img}
	bob := domain.Account{ID: uuid.New(), FirstName: "Bob", LastName: "Wu", Username: "bobby", Email: "bob@example.com"}
	gone := domain.Account{ID: uuid.New(), FirstName: "Annette", LastName: "Gone", Username: "gone", Email: "gone@example.com", Status: domain.AccountStatusDelete}
	for _, a := range []domain.Account{ann, bob, gone} {
		insertAccount(t, pool, a)
	}

	found, err := repo.FindByIDs(ctx, []uuid.UUID{ann.ID, bob.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, a := range found {
		if a.ID == ann.ID {
			require.NotNil(t, a.Image)
			assert.Equal(t, img, *a.Image)
		}
	}

	active, err := repo.ActiveIDs(ctx, []uuid.UUID{ann.ID, gone.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ann.ID}, active)
}
