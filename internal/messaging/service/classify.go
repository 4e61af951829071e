package service

import (
	"errors"
	"net/http"

	mdomain "github.com/courierhq/courier/internal/messaging/domain"
)

// classifyStatus maps an HTTP API response code to a diagnosis category.
func classifyStatus(code int) mdomain.Diagnosis {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return mdomain.DiagAuthFailed
	case http.StatusTooManyRequests:
		return mdomain.DiagRateLimited
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return mdomain.DiagInvalidRecipient
	default:
		return mdomain.DiagServerError
	}
}

func errStatus(status string) error { return errors.New("unexpected status " + status) }
