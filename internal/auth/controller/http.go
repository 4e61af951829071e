package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	domain "github.com/courierhq/courier/internal/auth/domain"
	"github.com/courierhq/courier/internal/logger"
	"github.com/courierhq/courier/internal/platform/validation"
)

type Controller struct {
	svc domain.Service
	log zerolog.Logger
}

func New(svc domain.Service) *Controller {
	return &Controller{svc: svc, log: logger.Nop()}
}

// SetLogger allows injection of a structured logger.
func (h *Controller) SetLogger(l zerolog.Logger) { h.log = l }

// Register mounts auth routes under the given group.
func (h *Controller) Register(g *echo.Group) {
	g.POST("/auth/login", h.login)
}

type loginReq struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// Exactly one of the two mode discriminators is expected. When APIKey is
	// present the API-key mode runs; otherwise Partner is required.
	Partner string `json:"partner" validate:"omitempty,email"`
	APIKey  string `json:"apiKey"`
}

type loginResp struct {
	Success bool               `json:"success"`
	Token   string             `json:"token"`
	User    domain.UserSummary `json:"user"`
}

type errorResp struct {
	Success         bool   `json:"success"`
	Error           string `json:"error"`
	APIAccessStatus string `json:"apiAccessStatus,omitempty"`
}

func (h *Controller) login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Success: false, Error: "Invalid JSON body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}

	ctx := c.Request().Context()
	var res domain.LoginResult
	var err error
	if req.APIKey != "" {
		res, err = h.svc.LoginWithAPIKey(ctx, domain.APIKeyLoginInput{
			Email:    req.Username,
			Password: req.Password,
			APIKey:   req.APIKey,
		})
	} else {
		if req.Partner == "" {
			return c.JSON(http.StatusBadRequest, errorResp{Success: false, Error: "Either partner or apiKey is required"})
		}
		res, err = h.svc.LoginWithPartner(ctx, domain.PartnerLoginInput{
			Email:        req.Username,
			Password:     req.Password,
			PartnerEmail: req.Partner,
		})
	}
	if err != nil {
		return h.loginError(c, err)
	}
	return c.JSON(http.StatusOK, loginResp{Success: true, Token: res.Token, User: res.User})
}

func (h *Controller) loginError(c echo.Context, err error) error {
	var denied domain.ErrAccessNotApproved
	switch {
	case errors.Is(err, domain.ErrInvalidPartner):
		return c.JSON(http.StatusUnauthorized, errorResp{Success: false, Error: "Invalid partner"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorResp{Success: false, Error: "Invalid credentials"})
	case errors.Is(err, domain.ErrInvalidAPIKey):
		return c.JSON(http.StatusUnauthorized, errorResp{Success: false, Error: "Invalid API key"})
	case errors.As(err, &denied):
		return c.JSON(http.StatusForbidden, errorResp{
			Success:         false,
			Error:           "API access has not been approved for this account",
			APIAccessStatus: string(denied.Status),
		})
	default:
		h.log.Error().Err(err).Msg("login failed")
		return c.JSON(http.StatusInternalServerError, errorResp{Success: false, Error: "Internal server error"})
	}
}
