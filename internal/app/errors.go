package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"quorum/api/internal/permissions"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// mapError translates service errors to the HTTP error contract.
// Permission denial is never an error; it shows up as false flags.
func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var notFound *permissions.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, "PROPOSAL_NOT_FOUND", notFound.Error(), nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
