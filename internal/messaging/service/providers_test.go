package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courierhq/courier/internal/config"
	"github.com/courierhq/courier/internal/logger"
	mdomain "github.com/courierhq/courier/internal/messaging/domain"
)

func resendConfig() config.Config {
	cfg, _ := config.Load()
	cfg.ResendAPIKey = "re_test"
	cfg.ResendFrom = "noreply@example.com"
	return cfg
}

func TestResend_Configured(t *testing.T) {
	cfg, _ := config.Load()
	cfg.ResendAPIKey = ""
	cfg.ResendFrom = ""
	assert.False(t, NewResend(cfg, logger.Nop()).Configured())

	cfg.ResendAPIKey = "re_test"
	assert.False(t, NewResend(cfg, logger.Nop()).Configured(), "sender address is required too")

	cfg.ResendFrom = "noreply@example.com"
	assert.True(t, NewResend(cfg, logger.Nop()).Configured())
}

func TestResend_SendSuccess(t *testing.T) {
	p := NewResend(resendConfig(), logger.Nop())
	httpmock.ActivateNonDefault(p.http)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, resendEndpoint,
		httpmock.NewJsonResponderOrPanic(200, map[string]string{"id": "re_msg_1"}))

	res := p.Send(context.Background(), mdomain.Email{To: "a@b.com", Subject: "hi", Text: "body"})
	require.True(t, res.Success)
	assert.Equal(t, "resend", res.Provider)
	assert.Equal(t, "re_msg_1", res.MessageID)
}

func TestResend_SendAuthFailure(t *testing.T) {
	p := NewResend(resendConfig(), logger.Nop())
	httpmock.ActivateNonDefault(p.http)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, resendEndpoint,
		httpmock.NewStringResponder(401, `{"message":"invalid api key"}`))

	res := p.Send(context.Background(), mdomain.Email{To: "a@b.com"})
	require.False(t, res.Success)
	var serr *mdomain.SendError
	require.ErrorAs(t, res.Err, &serr)
	assert.Equal(t, mdomain.DiagAuthFailed, serr.Diagnosis)
	assert.NotContains(t, serr.Error(), "re_test", "credentials must not leak into the error")
}

func TestResend_SendRateLimited(t *testing.T) {
	p := NewResend(resendConfig(), logger.Nop())
	httpmock.ActivateNonDefault(p.http)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, resendEndpoint,
		httpmock.NewStringResponder(429, `{"message":"too many requests"}`))

	res := p.Send(context.Background(), mdomain.Email{To: "a@b.com"})
	var serr *mdomain.SendError
	require.ErrorAs(t, res.Err, &serr)
	assert.Equal(t, mdomain.DiagRateLimited, serr.Diagnosis)
}

func TestResend_Unconfigured(t *testing.T) {
	cfg, _ := config.Load()
	cfg.ResendAPIKey = ""
	p := NewResend(cfg, logger.Nop())

	res := p.Send(context.Background(), mdomain.Email{To: "a@b.com"})
	assert.ErrorIs(t, res.Err, mdomain.ErrNotConfigured)
}

func sendgridConfig() config.Config {
	cfg, _ := config.Load()
	cfg.SendgridAPIKey = "SG.test"
	cfg.SendgridFrom = "noreply@example.com"
	return cfg
}

func TestSendgrid_SendSuccess(t *testing.T) {
	p := NewSendgrid(sendgridConfig(), logger.Nop())
	httpmock.ActivateNonDefault(p.http)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, sendgridEndpoint,
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(202, "")
			resp.Header.Set("X-Message-Id", "sg_msg_1")
			return resp, nil
		})

	res := p.Send(context.Background(), mdomain.Email{To: "a@b.com", Subject: "hi", Text: "body"})
	require.True(t, res.Success)
	assert.Equal(t, "sendgrid", res.Provider)
	assert.Equal(t, "sg_msg_1", res.MessageID)
}

func TestSendgrid_SendInvalidRecipient(t *testing.T) {
	p := NewSendgrid(sendgridConfig(), logger.Nop())
	httpmock.ActivateNonDefault(p.http)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, sendgridEndpoint,
		httpmock.NewStringResponder(400, `{"errors":[{"message":"bad to"}]}`))

	res := p.Send(context.Background(), mdomain.Email{To: "nope"})
	var serr *mdomain.SendError
	require.ErrorAs(t, res.Err, &serr)
	assert.Equal(t, mdomain.DiagInvalidRecipient, serr.Diagnosis)
}

func twilioConfig() config.Config {
	cfg, _ := config.Load()
	cfg.TwilioAccountSID = "AC00000000000000000000000000000000"
	cfg.TwilioAuthToken = "token"
	cfg.TwilioFrom = "+15005550006"
	return cfg
}

func twilioMessagesURL(cfg config.Config) string {
	return twilioBaseURL + "/Accounts/" + cfg.TwilioAccountSID + "/Messages.json"
}

func TestTwilio_SendSuccess(t *testing.T) {
	cfg := twilioConfig()
	p := NewTwilio(cfg, logger.Nop())
	httpmock.ActivateNonDefault(p.http)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, twilioMessagesURL(cfg),
		httpmock.NewJsonResponderOrPanic(201, map[string]string{
			"sid":          "SM123",
			"status":       "queued",
			"num_segments": "2",
		}))

	res := p.Send(context.Background(), mdomain.SMS{To: "+12125551234", Body: "hello"})
	require.True(t, res.Success)
	assert.Equal(t, "twilio", res.Provider)
	assert.Equal(t, "SM123", res.MessageID)
	assert.Equal(t, 2, res.Segments)
}

func TestTwilio_VendorCodeSurfaced(t *testing.T) {
	cfg := twilioConfig()
	p := NewTwilio(cfg, logger.Nop())
	httpmock.ActivateNonDefault(p.http)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, twilioMessagesURL(cfg),
		httpmock.NewJsonResponderOrPanic(400, map[string]any{
			"code":    mdomain.SMSCodeInvalidNumber,
			"message": "The 'To' number is not a valid phone number.",
		}))

	res := p.Send(context.Background(), mdomain.SMS{To: "+1", Body: "hello"})
	require.False(t, res.Success)
	var serr *mdomain.SendError
	require.ErrorAs(t, res.Err, &serr)
	assert.Equal(t, mdomain.SMSCodeInvalidNumber, serr.VendorCode)
	assert.Equal(t, mdomain.DiagInvalidRecipient, serr.Diagnosis)
}

func TestTwilio_Unconfigured(t *testing.T) {
	cfg, _ := config.Load()
	cfg.TwilioAccountSID = ""
	p := NewTwilio(cfg, logger.Nop())

	res := p.Send(context.Background(), mdomain.SMS{To: "+12125551234", Body: "hello"})
	assert.ErrorIs(t, res.Err, mdomain.ErrNotConfigured)
}

func TestEstimateSegments(t *testing.T) {
	assert.Equal(t, 1, estimateSegments("short"))
	assert.Equal(t, 1, estimateSegments(string(make([]byte, 160))))
	assert.Equal(t, 2, estimateSegments(string(make([]byte, 161))))
	assert.Equal(t, 2, estimateSegments(string(make([]byte, 306))))
	assert.Equal(t, 3, estimateSegments(string(make([]byte, 307))))
}

func TestClassifySMTPError(t *testing.T) {
	cases := []struct {
		err  error
		want mdomain.Diagnosis
	}{
		{errors.New("dial tcp 127.0.0.1:587: connect: connection refused"), mdomain.DiagConnectionRefused},
		{errors.New("535 5.7.8 authentication failed"), mdomain.DiagAuthFailed},
		{errors.New("450 4.2.1 rate limit exceeded"), mdomain.DiagRateLimited},
		{errors.New("550 5.1.1 unknown recipient"), mdomain.DiagInvalidRecipient},
		{errors.New("421 service not available"), mdomain.DiagServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifySMTPError(tc.err), "error: %v", tc.err)
	}
}
