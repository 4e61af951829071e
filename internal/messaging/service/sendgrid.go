package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/courierhq/courier/internal/config"
	mdomain "github.com/courierhq/courier/internal/messaging/domain"
)

var _ mdomain.Provider = (*Sendgrid)(nil)

const sendgridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// Sendgrid sends through the SendGrid v3 mail API. A successful send
// returns 202 with the message id in the X-Message-Id header.
type Sendgrid struct {
	apiKey string
	from   string
	http   *http.Client
	log    zerolog.Logger
}

func NewSendgrid(cfg config.Config, log zerolog.Logger) *Sendgrid {
	return &Sendgrid{
		apiKey: cfg.SendgridAPIKey,
		from:   cfg.SendgridFrom,
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (s *Sendgrid) Name() string     { return "sendgrid" }
func (s *Sendgrid) From() string     { return s.from }
func (s *Sendgrid) Configured() bool { return s.apiKey != "" && s.from != "" }

type sgAddress struct {
	Email string `json:"email"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMail struct {
	Personalizations []struct {
		To []sgAddress `json:"to"`
	} `json:"personalizations"`
	From    sgAddress   `json:"from"`
	Subject string      `json:"subject"`
	Content []sgContent `json:"content"`
}

func (s *Sendgrid) Send(ctx context.Context, msg mdomain.Email) mdomain.Result {
	if !s.Configured() {
		return mdomain.Result{Provider: s.Name(), Err: mdomain.ErrNotConfigured}
	}
	from := msg.From
	if from == "" {
		from = s.from
	}
	payload := sgMail{
		From:    sgAddress{Email: from},
		Subject: msg.Subject,
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To []sgAddress `json:"to"`
	}{To: []sgAddress{{Email: msg.To}}})
	if msg.Text != "" {
		payload.Content = append(payload.Content, sgContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		payload.Content = append(payload.Content, sgContent{Type: "text/html", Value: msg.HTML})
	}

	buf, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendgridEndpoint, bytes.NewReader(buf))
	if err != nil {
		return mdomain.Result{Provider: s.Name(), Err: mdomain.NewSendError(s.Name(), mdomain.DiagServerError, err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.Name()).Msg("send transport error")
		return mdomain.Result{Provider: s.Name(), Err: mdomain.NewSendError(s.Name(), mdomain.DiagConnectionRefused, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		diag := classifyStatus(resp.StatusCode)
		s.log.Error().Str("provider", s.Name()).Str("status", resp.Status).Msg("send rejected")
		return mdomain.Result{Provider: s.Name(), Err: mdomain.NewSendError(s.Name(), diag, errStatus(resp.Status))}
	}
	return mdomain.Result{Success: true, Provider: s.Name(), MessageID: resp.Header.Get("X-Message-Id")}
}
