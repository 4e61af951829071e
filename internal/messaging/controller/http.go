package controller

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	authmw "github.com/courierhq/courier/internal/auth/middleware"
	evdomain "github.com/courierhq/courier/internal/events/domain"
	"github.com/courierhq/courier/internal/logger"
	mdomain "github.com/courierhq/courier/internal/messaging/domain"
	"github.com/courierhq/courier/internal/platform/validation"
)

const maxSMSLength = 1600

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	phoneStrip   = regexp.MustCompile(`[\s().-]`)
)

// emailTemplate wraps the plain body for HTML rendering. The %s slots are
// business group and body.
const emailTemplate = `<html><body>
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #333;">%s</h2>
<div style="padding: 16px; background: #f9f9f9; border-radius: 4px; white-space: pre-wrap;">%s</div>
<p style="color: #999; font-size: 12px;">This message was sent via the messaging API.</p>
</div>
</body></html>`

type Controller struct {
	email mdomain.Dispatcher
	sms   mdomain.SMSProvider
	pub   evdomain.Publisher
	log   zerolog.Logger
}

func New(email mdomain.Dispatcher, sms mdomain.SMSProvider, pub evdomain.Publisher) *Controller {
	return &Controller{email: email, sms: sms, pub: pub, log: logger.Nop()}
}

// SetLogger allows injection of a structured logger.
func (h *Controller) SetLogger(l zerolog.Logger) { h.log = l }

// Register mounts messaging routes under the given group behind the session
// middleware.
func (h *Controller) Register(g *echo.Group, session echo.MiddlewareFunc) {
	g.POST("/messaging/send-email", h.sendEmail, session)
	g.POST("/messaging/send-sms", h.sendSMS, session)
}

type errorResp struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type sendEmailReq struct {
	BusinessGroup string `json:"businessGroup" validate:"required"`
	To            string `json:"to" validate:"required"`
	Subject       string `json:"subject" validate:"required"`
	Body          string `json:"body" validate:"required"`
}

type sendEmailData struct {
	BusinessGroup string    `json:"businessGroup"`
	To            string    `json:"to"`
	Subject       string    `json:"subject"`
	SentAt        time.Time `json:"sentAt"`
	Provider      string    `json:"provider,omitempty"`
	MessageID     string    `json:"messageId,omitempty"`
}

type sendEmailResp struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    sendEmailData `json:"data"`
}

func (h *Controller) sendEmail(c echo.Context) error {
	var req sendEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Success: false, Error: "Invalid JSON body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}
	if !emailPattern.MatchString(req.To) {
		return c.JSON(http.StatusBadRequest, errorResp{Success: false, Error: "Invalid email address format"})
	}
	from := h.email.DefaultFrom()
	if from == "" {
		return c.JSON(http.StatusInternalServerError, errorResp{Success: false, Error: "No email provider is configured"})
	}

	subject := fmt.Sprintf("[%s] %s", req.BusinessGroup, req.Subject)
	msg := mdomain.Email{
		To:      req.To,
		From:    from,
		Subject: subject,
		Text:    req.Body,
		HTML:    fmt.Sprintf(emailTemplate, req.BusinessGroup, req.Body),
	}

	res := h.email.Send(c.Request().Context(), msg)
	if !res.Success {
		return c.JSON(http.StatusInternalServerError, errorResp{Success: false, Error: mdomain.ErrAllProvidersFailed.Error()})
	}

	if claims, ok := authmw.Claims(c); ok {
		_ = h.pub.Publish(c.Request().Context(), evdomain.Event{
			Type:   "messaging.email.sent",
			UserID: claims.UserID,
			Meta:   map[string]string{"business_group": req.BusinessGroup, "provider": res.Provider},
			Time:   time.Now(),
		})
	}

	return c.JSON(http.StatusOK, sendEmailResp{
		Success: true,
		Message: "Email sent successfully",
		Data: sendEmailData{
			BusinessGroup: req.BusinessGroup,
			To:            req.To,
			Subject:       subject,
			SentAt:        time.Now().UTC(),
			Provider:      res.Provider,
			MessageID:     res.MessageID,
		},
	})
}

type sendSMSReq struct {
	BusinessGroup string `json:"businessGroup" validate:"required"`
	To            string `json:"to" validate:"required"`
	Body          string `json:"body" validate:"required"`
}

type sendSMSData struct {
	BusinessGroup string    `json:"businessGroup"`
	To            string    `json:"to"`
	MessageID     string    `json:"messageId"`
	Status        string    `json:"status"`
	SentAt        time.Time `json:"sentAt"`
	Segments      int       `json:"segments"`
}

type sendSMSResp struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    sendSMSData `json:"data"`
}

// normalizePhone strips grouping characters and ensures a leading plus.
func normalizePhone(raw string) (string, bool) {
	p := phoneStrip.ReplaceAllString(strings.TrimSpace(raw), "")
	if p == "" {
		return "", false
	}
	if !strings.HasPrefix(p, "+") {
		p = "+" + p
	}
	return p, phonePattern.MatchString(p)
}

func (h *Controller) sendSMS(c echo.Context) error {
	var req sendSMSReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Success: false, Error: "Invalid JSON body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}

	to, ok := normalizePhone(req.To)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResp{Success: false, Error: "Invalid phone number format"})
	}

	body := fmt.Sprintf("[%s] %s", req.BusinessGroup, req.Body)
	if len(body) > maxSMSLength {
		return c.JSON(http.StatusBadRequest, errorResp{
			Success: false,
			Error:   "Message body is too long. Maximum length is 1600 characters.",
		})
	}

	if !h.sms.Configured() {
		return c.JSON(http.StatusInternalServerError, errorResp{Success: false, Error: "SMS provider is not configured"})
	}

	res := h.sms.Send(c.Request().Context(), mdomain.SMS{To: to, Body: body})
	if !res.Success {
		return h.smsError(c, res.Err)
	}

	if claims, ok := authmw.Claims(c); ok {
		_ = h.pub.Publish(c.Request().Context(), evdomain.Event{
			Type:   "messaging.sms.sent",
			UserID: claims.UserID,
			Meta:   map[string]string{"business_group": req.BusinessGroup, "provider": res.Provider},
			Time:   time.Now(),
		})
	}

	return c.JSON(http.StatusOK, sendSMSResp{
		Success: true,
		Message: "SMS sent successfully",
		Data: sendSMSData{
			BusinessGroup: req.BusinessGroup,
			To:            to,
			MessageID:     res.MessageID,
			Status:        "sent",
			SentAt:        time.Now().UTC(),
			Segments:      res.Segments,
		},
	})
}

// smsError maps vendor error codes to distinct status/message pairs; every
// other failure is a sanitized 500.
func (h *Controller) smsError(c echo.Context, err error) error {
	var serr *mdomain.SendError
	if errors.As(err, &serr) {
		switch serr.VendorCode {
		case mdomain.SMSCodeInvalidNumber:
			return c.JSON(http.StatusBadRequest, errorResp{Success: false, Error: "Invalid phone number"})
		case mdomain.SMSCodePermissionDenied:
			return c.JSON(http.StatusForbidden, errorResp{Success: false, Error: "SMS sending is not enabled for this destination region"})
		case mdomain.SMSCodeOptedOut:
			return c.JSON(http.StatusForbidden, errorResp{Success: false, Error: "Recipient has opted out of receiving messages"})
		case mdomain.SMSCodeNotMobile:
			return c.JSON(http.StatusBadRequest, errorResp{Success: false, Error: "Recipient number is not a valid mobile number"})
		}
		h.log.Error().Err(err).Str("diagnosis", string(serr.Diagnosis)).Msg("sms send failed")
		return c.JSON(http.StatusInternalServerError, errorResp{Success: false, Error: "Failed to send SMS"})
	}
	if errors.Is(err, mdomain.ErrNotConfigured) {
		return c.JSON(http.StatusInternalServerError, errorResp{Success: false, Error: "SMS provider is not configured"})
	}
	h.log.Error().Err(err).Msg("sms send failed")
	return c.JSON(http.StatusInternalServerError, errorResp{Success: false, Error: "Failed to send SMS"})
}
