package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/courierhq/courier/internal/config"
	mdomain "github.com/courierhq/courier/internal/messaging/domain"
)

var _ mdomain.SMSProvider = (*Twilio)(nil)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// Twilio sends SMS through the Twilio Messages API using basic auth over a
// form-encoded POST. It is the only SMS transport; there is no fallback.
type Twilio struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	http       *http.Client
	log        zerolog.Logger
}

func NewTwilio(cfg config.Config, log zerolog.Logger) *Twilio {
	return &Twilio{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		from:       cfg.TwilioFrom,
		baseURL:    twilioBaseURL,
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (t *Twilio) Name() string { return "twilio" }
func (t *Twilio) From() string { return t.from }
func (t *Twilio) Configured() bool {
	return t.accountSID != "" && t.authToken != "" && t.from != ""
}

type twilioMessageResp struct {
	SID         string `json:"sid"`
	Status      string `json:"status"`
	NumSegments string `json:"num_segments"`
}

type twilioErrorResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (t *Twilio) Send(ctx context.Context, msg mdomain.SMS) mdomain.Result {
	if !t.Configured() {
		return mdomain.Result{Provider: t.Name(), Err: mdomain.ErrNotConfigured}
	}
	from := msg.From
	if from == "" {
		from = t.from
	}

	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", from)
	form.Set("Body", msg.Body)

	endpoint := t.baseURL + "/Accounts/" + t.accountSID + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return mdomain.Result{Provider: t.Name(), Err: mdomain.NewSendError(t.Name(), mdomain.DiagServerError, err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.http.Do(req)
	if err != nil {
		t.log.Error().Err(err).Str("provider", t.Name()).Msg("send transport error")
		return mdomain.Result{Provider: t.Name(), Err: mdomain.NewSendError(t.Name(), mdomain.DiagConnectionRefused, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var verr twilioErrorResp
		_ = json.NewDecoder(resp.Body).Decode(&verr)
		diag := classifyTwilioCode(verr.Code, resp.StatusCode)
		t.log.Error().
			Str("provider", t.Name()).
			Str("status", resp.Status).
			Int("vendor_code", verr.Code).
			Str("diagnosis", string(diag)).
			Msg("send rejected")
		serr := mdomain.NewSendError(t.Name(), diag, errStatus(resp.Status))
		serr.VendorCode = verr.Code
		return mdomain.Result{Provider: t.Name(), Err: serr}
	}

	var body twilioMessageResp
	_ = json.NewDecoder(resp.Body).Decode(&body)
	segments, _ := strconv.Atoi(body.NumSegments)
	if segments == 0 {
		segments = estimateSegments(msg.Body)
	}
	return mdomain.Result{Success: true, Provider: t.Name(), MessageID: body.SID, Segments: segments}
}

func classifyTwilioCode(code, httpStatus int) mdomain.Diagnosis {
	switch code {
	case mdomain.SMSCodeInvalidNumber, mdomain.SMSCodeNotMobile:
		return mdomain.DiagInvalidRecipient
	case mdomain.SMSCodePermissionDenied, mdomain.SMSCodeOptedOut:
		return mdomain.DiagAuthFailed
	}
	return classifyStatus(httpStatus)
}

// estimateSegments mirrors GSM-7 segmentation: one segment up to 160 chars,
// then 153-char concatenated segments.
func estimateSegments(body string) int {
	n := len(body)
	if n <= 160 {
		return 1
	}
	return (n + 152) / 153
}
