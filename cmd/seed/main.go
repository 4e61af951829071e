package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/courierhq/courier/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user',
	plan TEXT NOT NULL DEFAULT 'demo',
	partner_id UUID REFERENCES users(id),
	api_access_status TEXT NOT NULL DEFAULT 'none',
	api_key TEXT,
	api_requested_at TIMESTAMPTZ,
	api_approved_at TIMESTAMPTZ,
	api_approved_by UUID,
	api_rejection_reason TEXT
);
CREATE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email));
`

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}

	partnerEmail := flag.String("partner-email", envOr("PARTNER_EMAIL", "partner@example.com"), "partner account email")
	userEmail := flag.String("user-email", envOr("USER_EMAIL", "user@example.com"), "user account email")
	password := flag.String("password", envOr("PASSWORD", "ChangeMe123!"), "password for both accounts")
	plan := flag.String("plan", envOr("PLAN", "demo"), "user plan (demo|starter|professional|enterprise)")
	flag.Parse()

	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		fatalf("invalid DATABASE_URL: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		fatalf("pg pool: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		fatalf("ensure schema: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fatalf("hash password: %v", err)
	}

	partnerID := uuid.New()
	if err := upsertUser(ctx, pool, upsertParams{
		ID:           partnerID,
		Email:        strings.ToLower(*partnerEmail),
		Name:         "Seed Partner",
		PasswordHash: string(hash),
		Role:         "partner",
		Plan:         "enterprise",
		APIStatus:    "approved",
	}); err != nil {
		fatalf("seed partner: %v", err)
	}

	apiKey := newAPIKey()
	userID := uuid.New()
	if err := upsertUser(ctx, pool, upsertParams{
		ID:           userID,
		Email:        strings.ToLower(*userEmail),
		Name:         "Seed User",
		PasswordHash: string(hash),
		Role:         "user",
		Plan:         *plan,
		PartnerID:    &partnerID,
		APIStatus:    "approved",
		APIKey:       apiKey,
	}); err != nil {
		fatalf("seed user: %v", err)
	}

	printEnv(map[string]string{
		"PARTNER_EMAIL": strings.ToLower(*partnerEmail),
		"USER_EMAIL":    strings.ToLower(*userEmail),
		"API_KEY":       apiKey,
	})
}

type upsertParams struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Plan         string
	PartnerID    *uuid.UUID
	APIStatus    string
	APIKey       string
}

func upsertUser(ctx context.Context, pool *pgxpool.Pool, p upsertParams) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, plan, partner_id, api_access_status, api_key, api_approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), now())
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			plan = EXCLUDED.plan,
			partner_id = EXCLUDED.partner_id,
			api_access_status = EXCLUDED.api_access_status,
			api_key = EXCLUDED.api_key`,
		p.ID, p.Email, p.Name, p.PasswordHash, p.Role, p.Plan, p.PartnerID, p.APIStatus, p.APIKey)
	return err
}

func newAPIKey() string {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		fatalf("api key: %v", err)
	}
	return "ck_" + hex.EncodeToString(raw)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printEnv(kv map[string]string) {
	for k, v := range kv {
		fmt.Printf("%s=%s\n", k, v)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
