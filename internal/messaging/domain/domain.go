package domain

import (
	"context"
	"errors"
)

// Email is an outbound email message, constructed per request and never
// persisted.
type Email struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// SMS is an outbound text message.
type SMS struct {
	To   string
	From string
	Body string
}

// Diagnosis classifies a transport failure into a small category set. The
// category decides the user-safe message; raw transport errors are logged
// only.
type Diagnosis string

const (
	DiagConnectionRefused Diagnosis = "connection_refused"
	DiagAuthFailed        Diagnosis = "auth_failed"
	DiagRateLimited       Diagnosis = "rate_limited"
	DiagInvalidRecipient  Diagnosis = "invalid_recipient"
	DiagServerError       Diagnosis = "server_error"
)

// Message returns the sanitized text for the category.
func (d Diagnosis) Message() string {
	switch d {
	case DiagConnectionRefused:
		return "Could not reach the email service"
	case DiagAuthFailed:
		return "Email service rejected our credentials"
	case DiagRateLimited:
		return "Email service rate limit reached"
	case DiagInvalidRecipient:
		return "Recipient address was rejected"
	default:
		return "Email service reported an error"
	}
}

// SMS vendor error codes that map to distinct HTTP status/message pairs at
// the endpoint.
const (
	SMSCodeInvalidNumber    = 21211
	SMSCodePermissionDenied = 21408
	SMSCodeOptedOut         = 21610
	SMSCodeNotMobile        = 21614
)

// SendError is a classified transport failure. VendorCode carries the
// provider's numeric error code when one exists (SMS).
type SendError struct {
	Provider   string
	Diagnosis  Diagnosis
	VendorCode int
	cause      error
}

func NewSendError(provider string, d Diagnosis, cause error) *SendError {
	return &SendError{Provider: provider, Diagnosis: d, cause: cause}
}

func (e *SendError) Error() string {
	return e.Provider + ": " + e.Diagnosis.Message()
}

func (e *SendError) Unwrap() error { return e.cause }

// ErrAllProvidersFailed is the router's terminal failure; individual
// provider errors are logged, not surfaced.
var ErrAllProvidersFailed = errors.New("All email providers failed or are not configured")

// ErrNotConfigured reports a provider whose Send was requested while its
// settings are incomplete. The router must never let this happen; the SMS
// path maps it to a 500.
var ErrNotConfigured = errors.New("provider is not configured")

// Result is the uniform outcome of one send through any channel.
type Result struct {
	Success   bool
	MessageID string
	Provider  string
	// Segments is the SMS segment count; zero for email.
	Segments int
	Err      error
}

// Provider is the capability shared by every email transport variant.
// Configured must be a pure function of settings captured at construction
// and stable for the provider's lifetime; Send must never be called on an
// unconfigured provider.
type Provider interface {
	Name() string
	Configured() bool
	From() string
	Send(ctx context.Context, msg Email) Result
}

// SMSProvider is the capability of the single SMS transport.
type SMSProvider interface {
	Name() string
	Configured() bool
	From() string
	Send(ctx context.Context, msg SMS) Result
}

// Dispatcher sequences email providers for a send attempt.
type Dispatcher interface {
	Send(ctx context.Context, msg Email) Result
	// DefaultFrom resolves the sender address of the first configured
	// provider, or "" when none is configured.
	DefaultFrom() string
}
