//go:build integration

package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/courier/internal/auth/domain"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func insertUser(t *testing.T, pool *pgxpool.Pool, email, role string, partnerID *uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, email, name, password_hash, role, plan, partner_id, api_access_status, api_key)
		VALUES ($1, $2, 'Integration User', 'x', $3, 'demo', $4, 'approved', 'ck_it')`,
		id, email, role, partnerID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func TestPostgres_GetUserByEmail(t *testing.T) {
	pool := testPool(t)
	repo := New(pool)
	ctx := context.Background()

	email := "it-" + uuid.NewString() + "@example.com"
	id := insertUser(t, pool, email, "user", nil)

	u, err := repo.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, domain.APIAccessApproved, u.APIAccess.Status)
	assert.Equal(t, "ck_it", u.APIAccess.APIKey)

	// Lookup is case-insensitive.
	u, err = repo.GetUserByEmail(ctx, "IT-"+email[3:])
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = repo.GetUserByEmail(ctx, "nobody-"+email)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_PartnerScoping(t *testing.T) {
	pool := testPool(t)
	repo := New(pool)
	ctx := context.Background()

	partnerEmail := "it-partner-" + uuid.NewString() + "@example.com"
	partnerID := insertUser(t, pool, partnerEmail, "partner", nil)
	userEmail := "it-child-" + uuid.NewString() + "@example.com"
	userID := insertUser(t, pool, userEmail, "user", &partnerID)

	p, err := repo.GetPartnerByEmail(ctx, partnerEmail)
	require.NoError(t, err)
	assert.Equal(t, partnerID, p.ID)

	// A non-partner record must not satisfy the partner lookup.
	_, err = repo.GetPartnerByEmail(ctx, userEmail)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	u, err := repo.GetUserByEmailAndPartner(ctx, userEmail, partnerID)
	require.NoError(t, err)
	assert.Equal(t, userID, u.ID)
	require.NotNil(t, u.PartnerID)
	assert.Equal(t, partnerID, *u.PartnerID)

	_, err = repo.GetUserByEmailAndPartner(ctx, userEmail, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
