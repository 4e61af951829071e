package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/courierhq/courier/internal/auth/domain"
	"github.com/courierhq/courier/internal/config"
	evdomain "github.com/courierhq/courier/internal/events/domain"
	evsvc "github.com/courierhq/courier/internal/events/service"
	"github.com/courierhq/courier/internal/logger"
	"github.com/courierhq/courier/internal/metrics"
)

type Service struct {
	repo domain.Repository
	cfg  config.Config
	pub  evdomain.Publisher
	log  zerolog.Logger
}

var _ domain.Service = (*Service)(nil)

func New(repo domain.Repository, cfg config.Config) *Service {
	l := logger.Nop()
	return &Service{repo: repo, cfg: cfg, pub: evsvc.NewLogger(l), log: l}
}

// SetPublisher allows tests or callers to override the event publisher.
func (s *Service) SetPublisher(p evdomain.Publisher) { s.pub = p }

// SetLogger allows injection of a structured logger for debug tracing.
func (s *Service) SetLogger(l zerolog.Logger) { s.log = l }

// LoginWithPartner authenticates a user that belongs to the named partner
// account. The partner must exist with role=partner and the user must be one
// of its children; both misses surface as distinct failures.
func (s *Service) LoginWithPartner(ctx context.Context, in domain.PartnerLoginInput) (domain.LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PartnerEmail = strings.ToLower(strings.TrimSpace(in.PartnerEmail))

	partner, err := s.repo.GetPartnerByEmail(ctx, in.PartnerEmail)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.IncAuthOutcome("partner", "failure")
		return domain.LoginResult{}, domain.ErrInvalidPartner
	}
	if err != nil {
		return domain.LoginResult{}, err
	}

	user, err := s.repo.GetUserByEmailAndPartner(ctx, in.Email, partner.ID)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.IncAuthOutcome("partner", "failure")
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		metrics.IncAuthOutcome("partner", "failure")
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	if user.APIAccess.Status != domain.APIAccessApproved {
		metrics.IncAuthOutcome("partner", "failure")
		return domain.LoginResult{}, domain.ErrAccessNotApproved{Status: user.APIAccess.Status}
	}

	res, err := s.finishLogin(ctx, user, &partner, "partner")
	if err != nil {
		return domain.LoginResult{}, err
	}
	return res, nil
}

// LoginWithAPIKey authenticates by password plus the issued messaging API
// key. Partner resolution is best-effort; a dangling partner_id does not
// block login.
func (s *Service) LoginWithAPIKey(ctx context.Context, in domain.APIKeyLoginInput) (domain.LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.repo.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.IncAuthOutcome("api_key", "failure")
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		metrics.IncAuthOutcome("api_key", "failure")
		return domain.LoginResult{}, domain.ErrInvalidCredentials
	}

	if user.APIAccess.Status != domain.APIAccessApproved {
		metrics.IncAuthOutcome("api_key", "failure")
		return domain.LoginResult{}, domain.ErrAccessNotApproved{Status: user.APIAccess.Status}
	}

	if user.APIAccess.APIKey == "" ||
		subtle.ConstantTimeCompare([]byte(user.APIAccess.APIKey), []byte(in.APIKey)) != 1 {
		metrics.IncAuthOutcome("api_key", "failure")
		return domain.LoginResult{}, domain.ErrInvalidAPIKey
	}

	var partner *domain.User
	if user.PartnerID != nil {
		if p, err := s.repo.GetUserByID(ctx, *user.PartnerID); err == nil {
			partner = &p
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("partner lookup failed")
		}
	}

	res, err := s.finishLogin(ctx, user, partner, "api_key")
	if err != nil {
		return domain.LoginResult{}, err
	}
	return res, nil
}

func (s *Service) finishLogin(ctx context.Context, user domain.User, partner *domain.User, mode string) (domain.LoginResult, error) {
	claims := domain.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		PartnerID: user.PartnerID,
		Role:      user.Role,
		Plan:      user.Plan,
	}
	token, err := s.issueToken(claims)
	if err != nil {
		return domain.LoginResult{}, err
	}

	summary := domain.UserSummary{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Plan:  user.Plan,
		Role:  user.Role,
	}
	if partner != nil {
		summary.Partner = &domain.PartnerSummary{ID: partner.ID, Name: partner.Name, Email: partner.Email}
	}

	_ = s.pub.Publish(ctx, evdomain.Event{
		Type:   "auth." + mode + ".login.success",
		UserID: user.ID,
		Meta:   map[string]string{"email": user.Email, "role": string(user.Role), "plan": string(user.Plan)},
		Time:   time.Now(),
	})
	metrics.IncAuthOutcome(mode, "success")
	s.log.Info().Str("user_id", user.ID.String()).Str("mode", mode).Msg("login succeeded")

	return domain.LoginResult{Token: token, User: summary}, nil
}
