package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role of a user record. Partners own child user accounts via PartnerID.
type Role string

const (
	RoleAdmin   Role = "admin"
	RolePartner Role = "partner"
	RoleUser    Role = "user"
)

// Plan tier of a user record.
type Plan string

const (
	PlanDemo         Plan = "demo"
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// APIAccessStatus gates whether a user may use the messaging API.
type APIAccessStatus string

const (
	APIAccessNone     APIAccessStatus = "none"
	APIAccessPending  APIAccessStatus = "pending"
	APIAccessApproved APIAccessStatus = "approved"
	APIAccessRejected APIAccessStatus = "rejected"
)

// APIAccess is the admin-controlled approval record attached to a user.
type APIAccess struct {
	Status          APIAccessStatus
	APIKey          string
	RequestedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID
	RejectionReason string
}

// User is read from the external store at login time only; this service
// never mutates it.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Plan         Plan
	PartnerID    *uuid.UUID
	APIAccess    APIAccess
}

// Claims are the self-contained session token payload. PartnerID is nil for
// users without a parent partner.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	PartnerID *uuid.UUID
	Role      Role
	Plan      Plan
}

// PartnerSummary is the public slice of a partner record returned on login.
type PartnerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// UserSummary is the public slice of the authenticated user returned on login.
type UserSummary struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Plan    Plan            `json:"plan"`
	Role    Role            `json:"role"`
	Partner *PartnerSummary `json:"partner,omitempty"`
}

// LoginResult carries the issued token plus the public user summary.
type LoginResult struct {
	Token string
	User  UserSummary
}

// PartnerLoginInput authenticates a user scoped to a partner account.
type PartnerLoginInput struct {
	Email        string
	Password     string
	PartnerEmail string
}

// APIKeyLoginInput authenticates a user by password plus issued API key.
type APIKeyLoginInput struct {
	Email    string
	Password string
	APIKey   string
}

// Sentinel failures of the credential gate. Store errors pass through
// unwrapped and map to 500 at the controller.
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidPartner     = errors.New("invalid partner")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAPIKey      = errors.New("invalid api key")
)

// ErrAccessNotApproved blocks login when the messaging API approval is
// absent; it carries the current status for the 403 response body.
type ErrAccessNotApproved struct {
	Status APIAccessStatus
}

func (e ErrAccessNotApproved) Error() string {
	return fmt.Sprintf("api access not approved (status: %s)", e.Status)
}

// TokenFailure tags why an inbound token was rejected. Each reason maps to a
// fixed user-facing 401 message; raw verification errors stay server-side.
type TokenFailure string

const (
	TokenMissingHeader   TokenFailure = "missing_header"
	TokenMalformedScheme TokenFailure = "malformed_scheme"
	TokenEmpty           TokenFailure = "empty_token"
	TokenExpired         TokenFailure = "expired"
	TokenInvalid         TokenFailure = "invalid"
	TokenUnknown         TokenFailure = "unknown"
)

// ErrTokenRejected wraps a validation failure with its tagged reason.
type ErrTokenRejected struct {
	Reason TokenFailure
}

func (e ErrTokenRejected) Error() string { return "token rejected: " + string(e.Reason) }

// Message returns the fixed user-facing text for the failure reason.
func (e ErrTokenRejected) Message() string {
	switch e.Reason {
	case TokenMissingHeader:
		return "Authorization header is required. Use the format: Bearer <token>"
	case TokenMalformedScheme:
		return "Authorization header must use the format: Bearer <token>"
	case TokenEmpty:
		return "Bearer token must not be empty"
	case TokenExpired:
		return "Session token has expired. Please log in again"
	case TokenInvalid:
		return "Session token is invalid"
	default:
		return "Could not verify session token"
	}
}

// Repository is the read-only view of the external user store.
type Repository interface {
	// GetUserByEmail looks a user up by case-insensitive email.
	GetUserByEmail(ctx context.Context, email string) (User, error)
	// GetUserByEmailAndPartner scopes the lookup to children of a partner.
	GetUserByEmailAndPartner(ctx context.Context, email string, partnerID uuid.UUID) (User, error)
	// GetPartnerByEmail returns the user with role=partner for the email.
	GetPartnerByEmail(ctx context.Context, email string) (User, error)
	// GetUserByID fetches by primary key.
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
}

// Service is the credential & access gate plus token validator.
type Service interface {
	LoginWithPartner(ctx context.Context, in PartnerLoginInput) (LoginResult, error)
	LoginWithAPIKey(ctx context.Context, in APIKeyLoginInput) (LoginResult, error)
	// ValidateToken verifies signature and expiry of a bare token string and
	// reconstructs its claims.
	ValidateToken(token string) (Claims, error)
}
