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

var _ mdomain.Provider = (*Resend)(nil)

const resendEndpoint = "https://api.resend.com/emails"

// Resend sends through the Resend HTTP API. Configuration is the presence
// of an API key and a sender address; there is no connectivity pre-check.
type Resend struct {
	apiKey string
	from   string
	http   *http.Client
	log    zerolog.Logger
}

func NewResend(cfg config.Config, log zerolog.Logger) *Resend {
	return &Resend{
		apiKey: cfg.ResendAPIKey,
		from:   cfg.ResendFrom,
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (r *Resend) Name() string     { return "resend" }
func (r *Resend) From() string     { return r.from }
func (r *Resend) Configured() bool { return r.apiKey != "" && r.from != "" }

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

type resendResp struct {
	ID string `json:"id"`
}

func (r *Resend) Send(ctx context.Context, msg mdomain.Email) mdomain.Result {
	if !r.Configured() {
		return mdomain.Result{Provider: r.Name(), Err: mdomain.ErrNotConfigured}
	}
	from := msg.From
	if from == "" {
		from = r.from
	}
	payload := resendEmail{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	}
	buf, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(buf))
	if err != nil {
		return mdomain.Result{Provider: r.Name(), Err: mdomain.NewSendError(r.Name(), mdomain.DiagServerError, err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.http.Do(req)
	if err != nil {
		r.log.Error().Err(err).Str("provider", r.Name()).Msg("send transport error")
		return mdomain.Result{Provider: r.Name(), Err: mdomain.NewSendError(r.Name(), mdomain.DiagConnectionRefused, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		diag := classifyStatus(resp.StatusCode)
		r.log.Error().Str("provider", r.Name()).Str("status", resp.Status).Msg("send rejected")
		return mdomain.Result{Provider: r.Name(), Err: mdomain.NewSendError(r.Name(), diag, errStatus(resp.Status))}
	}

	var body resendResp
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return mdomain.Result{Success: true, Provider: r.Name(), MessageID: body.ID}
}
