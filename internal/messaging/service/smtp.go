package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/courierhq/courier/internal/config"
	mdomain "github.com/courierhq/courier/internal/messaging/domain"
)

var _ mdomain.Provider = (*SMTP)(nil)

// SMTP sends through a plain SMTP relay. Construction performs a
// best-effort reachability probe; a failed probe is logged but does not
// disable the provider, since transient network issues may resolve before
// the first real send.
type SMTP struct {
	host     string
	port     int
	username string
	password string
	from     string
	log      zerolog.Logger
}

func NewSMTP(cfg config.Config, log zerolog.Logger) *SMTP {
	s := &SMTP{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		log:      log,
	}
	if s.Configured() {
		addr := s.addr()
		conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
		if err != nil {
			s.log.Warn().Err(err).Str("addr", addr).Msg("smtp reachability probe failed")
		} else {
			_ = conn.Close()
			s.log.Debug().Str("addr", addr).Msg("smtp reachable")
		}
	}
	return s
}

func (s *SMTP) Name() string     { return "smtp" }
func (s *SMTP) From() string     { return s.from }
func (s *SMTP) Configured() bool { return s.host != "" && s.from != "" }

func (s *SMTP) addr() string { return fmt.Sprintf("%s:%d", s.host, s.port) }

func (s *SMTP) Send(ctx context.Context, msg mdomain.Email) mdomain.Result {
	if !s.Configured() {
		return mdomain.Result{Provider: s.Name(), Err: mdomain.ErrNotConfigured}
	}
	from := msg.From
	if from == "" {
		from = s.from
	}

	body := msg.HTML
	contentType := "text/html"
	if body == "" {
		body = msg.Text
		contentType = "text/plain"
	}
	raw := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: %s; charset=utf-8\r\n\r\n%s\r\n",
		from, msg.To, msg.Subject, contentType, body))

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := smtp.SendMail(s.addr(), auth, from, []string{msg.To}, raw); err != nil {
		diag := classifySMTPError(err)
		s.log.Error().Err(err).Str("provider", s.Name()).Str("diagnosis", string(diag)).Msg("send failed")
		return mdomain.Result{Provider: s.Name(), Err: mdomain.NewSendError(s.Name(), diag, err)}
	}
	// SMTP has no vendor message id; synthesize one for the response.
	return mdomain.Result{Success: true, Provider: s.Name(), MessageID: "smtp-" + uuid.NewString()}
}

// classifySMTPError buckets SMTP failures by error text and reply code.
func classifySMTPError(err error) mdomain.Diagnosis {
	var nerr net.Error
	if errors.As(err, &nerr) {
		return mdomain.DiagConnectionRefused
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") || strings.Contains(msg, "timeout"):
		return mdomain.DiagConnectionRefused
	case strings.Contains(msg, "535") || strings.Contains(msg, "auth"):
		return mdomain.DiagAuthFailed
	case strings.Contains(msg, "450") || strings.Contains(msg, "452") || strings.Contains(msg, "rate"):
		return mdomain.DiagRateLimited
	case strings.Contains(msg, "550") || strings.Contains(msg, "553") || strings.Contains(msg, "recipient"):
		return mdomain.DiagInvalidRecipient
	default:
		return mdomain.DiagServerError
	}
}

