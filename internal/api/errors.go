package api

import (
	"errors"
	"net/http"

	"docflow/internal/domain"
)

// httpStatusFromDomainError maps the domain error kinds onto HTTP statuses.
// Anything unrecognized is a 500 and gets its message masked by writeError.
func httpStatusFromDomainError(err error) int {
	var (
		notFound     *domain.NotFoundError
		accessDenied *domain.AccessDeniedError
		validation   *domain.ValidationError
		conflict     *domain.ConflictError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
