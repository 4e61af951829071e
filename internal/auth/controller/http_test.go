package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/courierhq/courier/internal/auth/domain"
	"github.com/courierhq/courier/internal/platform/validation"
)

type stubService struct {
	partnerIn *domain.PartnerLoginInput
	apiKeyIn  *domain.APIKeyLoginInput
	result    domain.LoginResult
	err       error
}

func (s *stubService) LoginWithPartner(ctx context.Context, in domain.PartnerLoginInput) (domain.LoginResult, error) {
	s.partnerIn = &in
	return s.result, s.err
}

func (s *stubService) LoginWithAPIKey(ctx context.Context, in domain.APIKeyLoginInput) (domain.LoginResult, error) {
	s.apiKeyIn = &in
	return s.result, s.err
}

func (s *stubService) ValidateToken(token string) (domain.Claims, error) {
	return domain.Claims{}, nil
}

func postLogin(t *testing.T, svc domain.Service, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = validation.New()
	New(svc).Register(e.Group("/v1"))

	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLogin_PartnerMode(t *testing.T) {
	uid := uuid.New()
	svc := &stubService{result: domain.LoginResult{
		Token: "issued-token",
		User: domain.UserSummary{
			ID:    uid,
			Name:  "Test User",
			Email: "user@example.com",
			Plan:  domain.PlanStarter,
			Role:  domain.RoleUser,
		},
	}}

	rec := postLogin(t, svc, map[string]string{
		"username": "user@example.com",
		"password": "secret",
		"partner":  "partner@example.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.partnerIn)
	assert.Nil(t, svc.apiKeyIn)
	assert.Equal(t, "partner@example.com", svc.partnerIn.PartnerEmail)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "issued-token", body["token"])
	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, uid.String(), user["id"])
	assert.Equal(t, "starter", user["plan"])
}

func TestLogin_APIKeyModePreferred(t *testing.T) {
	svc := &stubService{result: domain.LoginResult{Token: "t"}}

	rec := postLogin(t, svc, map[string]string{
		"username": "user@example.com",
		"password": "secret",
		"partner":  "partner@example.com",
		"apiKey":   "ck_123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.apiKeyIn)
	assert.Nil(t, svc.partnerIn)
	assert.Equal(t, "ck_123", svc.apiKeyIn.APIKey)
}

func TestLogin_MissingFields(t *testing.T) {
	svc := &stubService{}
	rec := postLogin(t, svc, map[string]string{"username": "user@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestLogin_NeitherPartnerNorKey(t *testing.T) {
	svc := &stubService{}
	rec := postLogin(t, svc, map[string]string{
		"username": "user@example.com",
		"password": "secret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Either partner or apiKey is required", decode(t, rec)["error"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{err: domain.ErrInvalidCredentials}
	rec := postLogin(t, svc, map[string]string{
		"username": "user@example.com",
		"password": "bad",
		"partner":  "partner@example.com",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec)["error"])
}

func TestLogin_InvalidPartner(t *testing.T) {
	svc := &stubService{err: domain.ErrInvalidPartner}
	rec := postLogin(t, svc, map[string]string{
		"username": "user@example.com",
		"password": "secret",
		"partner":  "ghost@example.com",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid partner", decode(t, rec)["error"])
}

func TestLogin_InvalidAPIKey(t *testing.T) {
	svc := &stubService{err: domain.ErrInvalidAPIKey}
	rec := postLogin(t, svc, map[string]string{
		"username": "user@example.com",
		"password": "secret",
		"apiKey":   "ck_wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid API key", decode(t, rec)["error"])
}

func TestLogin_AccessNotApproved(t *testing.T) {
	svc := &stubService{err: domain.ErrAccessNotApproved{Status: domain.APIAccessPending}}
	rec := postLogin(t, svc, map[string]string{
		"username": "user@example.com",
		"password": "secret",
		"partner":  "partner@example.com",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "pending", body["apiAccessStatus"])
}

func TestLogin_StoreErrorIs500(t *testing.T) {
	svc := &stubService{err: errors.New("connection reset")}
	rec := postLogin(t, svc, map[string]string{
		"username": "user@example.com",
		"password": "secret",
		"partner":  "partner@example.com",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["error"])
}
