package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/courierhq/courier/internal/auth/domain"
)

// PostgresRepository reads user records from the users table. The table is
// owned by the signup/approval workflow; this service only ever selects.
type PostgresRepository struct{ pg *pgxpool.Pool }

func New(pg *pgxpool.Pool) *PostgresRepository { return &PostgresRepository{pg: pg} }

var _ domain.Repository = (*PostgresRepository)(nil)

const userColumns = `id, email, name, password_hash, role, plan, partner_id,
	api_access_status, api_key, api_requested_at, api_approved_at, api_approved_by, api_rejection_reason`

type userRow struct {
	ID              pgtype.UUID
	Email           string
	Name            pgtype.Text
	PasswordHash    string
	Role            string
	Plan            string
	PartnerID       pgtype.UUID
	APIStatus       pgtype.Text
	APIKey          pgtype.Text
	RequestedAt     pgtype.Timestamptz
	ApprovedAt      pgtype.Timestamptz
	ApprovedBy      pgtype.UUID
	RejectionReason pgtype.Text
}

func (r *PostgresRepository) scanUser(row pgx.Row) (domain.User, error) {
	var u userRow
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Plan, &u.PartnerID,
		&u.APIStatus, &u.APIKey, &u.RequestedAt, &u.ApprovedAt, &u.ApprovedBy, &u.RejectionReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return mapUser(u), nil
}

func mapUser(u userRow) domain.User {
	status := domain.APIAccessNone
	if u.APIStatus.Valid && u.APIStatus.String != "" {
		status = domain.APIAccessStatus(u.APIStatus.String)
	}
	return domain.User{
		ID:           toUUID(u.ID),
		Email:        u.Email,
		Name:         u.Name.String,
		PasswordHash: u.PasswordHash,
		Role:         domain.Role(u.Role),
		Plan:         domain.Plan(u.Plan),
		PartnerID:    toUUIDNullable(u.PartnerID),
		APIAccess: domain.APIAccess{
			Status:          status,
			APIKey:          u.APIKey.String,
			RequestedAt:     toTimeNullable(u.RequestedAt),
			ApprovedAt:      toTimeNullable(u.ApprovedAt),
			ApprovedBy:      toUUIDNullable(u.ApprovedBy),
			RejectionReason: u.RejectionReason.String,
		},
	}
}

func toUUID(u pgtype.UUID) uuid.UUID { return uuid.UUID(u.Bytes) }

func toUUIDNullable(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func toTimeNullable(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func toPgUUID(u uuid.UUID) pgtype.UUID { return pgtype.UUID{Bytes: u, Valid: true} }

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.pg.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return r.scanUser(row)
}

func (r *PostgresRepository) GetUserByEmailAndPartner(ctx context.Context, email string, partnerID uuid.UUID) (domain.User, error) {
	row := r.pg.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) AND partner_id = $2`,
		email, toPgUUID(partnerID))
	return r.scanUser(row)
}

func (r *PostgresRepository) GetPartnerByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.pg.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) AND role = 'partner'`, email)
	return r.scanUser(row)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := r.pg.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, toPgUUID(id))
	return r.scanUser(row)
}
