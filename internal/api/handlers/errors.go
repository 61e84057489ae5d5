package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// statusFor maps domain failures onto HTTP status codes. Anything unknown is
// an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrDuplicateTransaction),
		errors.Is(err, domain.ErrInvalidDateFormat),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidDraft):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrExtraction),
		errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseRange reads the inclusive fromDate/toDate query parameters.
func parseRange(query url.Values) (from, to civil.Date, err error) {
	from, err = domain.ParseDate(query.Get("fromDate"))
	if err != nil {
		return from, to, err
	}
	to, err = domain.ParseDate(query.Get("toDate"))
	if err != nil {
		return from, to, err
	}
	if from.After(to) {
		return from, to, domain.ErrInvalidRange
	}
	return from, to, nil
}
