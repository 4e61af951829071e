package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/courierhq/courier/internal/auth/domain"
)

// issueToken signs the session claims with the shared secret. Tokens are
// self-contained; no server-side session state exists.
func (s *Service) issueToken(c domain.Claims) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   c.UserID.String(),
		"email": c.Email,
		"role":  string(c.Role),
		"plan":  string(c.Plan),
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.SessionTokenTTL).Unix(),
	}
	if c.PartnerID != nil {
		claims["ptn"] = c.PartnerID.String()
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.JWTSigningKey))
}

// ValidateToken verifies signature and expiry of a bare token string and
// reconstructs the session claims. Expiry is reported as its own reason,
// never folded into the generic invalid case.
func (s *Service) ValidateToken(token string) (domain.Claims, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSigningKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuedAt())
	if err != nil {
		s.log.Debug().Err(err).Str("token_prefix", tokenPrefix(token)).Msg("token rejected")
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, domain.ErrTokenRejected{Reason: domain.TokenExpired}
		}
		if errors.Is(err, jwt.ErrTokenMalformed) || errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return domain.Claims{}, domain.ErrTokenRejected{Reason: domain.TokenInvalid}
		}
		return domain.Claims{}, domain.ErrTokenRejected{Reason: domain.TokenUnknown}
	}
	if !tok.Valid {
		return domain.Claims{}, domain.ErrTokenRejected{Reason: domain.TokenInvalid}
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Claims{}, domain.ErrTokenRejected{Reason: domain.TokenInvalid}
	}
	sub, _ := mc["sub"].(string)
	uid, err := uuid.Parse(sub)
	if err != nil {
		return domain.Claims{}, domain.ErrTokenRejected{Reason: domain.TokenInvalid}
	}
	email, _ := mc["email"].(string)
	role, _ := mc["role"].(string)
	plan, _ := mc["plan"].(string)

	c := domain.Claims{
		UserID: uid,
		Email:  email,
		Role:   domain.Role(role),
		Plan:   domain.Plan(plan),
	}
	if ptn, _ := mc["ptn"].(string); ptn != "" {
		if pid, err := uuid.Parse(ptn); err == nil {
			c.PartnerID = &pid
		}
	}
	return c, nil
}

// tokenPrefix truncates a token for diagnostics so secret material never
// reaches the logs in full.
func tokenPrefix(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
