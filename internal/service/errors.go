package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/api/googleapi"
	"gorm.io/gorm"
)

// ── validation ──

// ErrValidation matches every *ValidationError
var ErrValidation = errors.New("validation failed")

// ValidationError a form field failed a rule
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ── persistence taxonomy ──

// PersistenceKind category of a failed store write
type PersistenceKind string

const (
	PersistencePermission      PersistenceKind = "permission"
	PersistenceUnavailable     PersistenceKind = "unavailable"
	PersistenceTimeout         PersistenceKind = "timeout"
	PersistenceOversized       PersistenceKind = "oversized"
	PersistenceNetwork         PersistenceKind = "network"
	PersistenceQuota           PersistenceKind = "quota"
	PersistenceInvalidArgument PersistenceKind = "invalid_argument"
	PersistenceUnknown         PersistenceKind = "unknown"
)

var persistenceMessages = map[PersistenceKind]string{
	PersistencePermission:      "Permission denied while saving your registration. Please contact the organisers.",
	PersistenceUnavailable:     "Service temporarily unavailable. Please try again later.",
	PersistenceTimeout:         "The request timed out. Please try again.",
	PersistenceOversized:       "Image file is too large. Please use a smaller image.",
	PersistenceNetwork:         "Network error. Please check your internet connection.",
	PersistenceQuota:           "Registration is over capacity right now. Please try again later.",
	PersistenceInvalidArgument: "Some of the submitted details could not be saved. Please review the form and try again.",
	PersistenceUnknown:         "Failed to submit registration. Please try again.",
}

// PersistenceError a store failure translated for the submitter. The
// wrapped error is for logs only.
type PersistenceError struct {
	Kind PersistenceKind
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence (%s): %v", e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UserMessage the only text shown to the submitter
func (e *PersistenceError) UserMessage() string {
	return persistenceMessages[e.Kind]
}

// Retryable whether another attempt could succeed
func (e *PersistenceError) Retryable() bool {
	switch e.Kind {
	case PersistencePermission, PersistenceOversized, PersistenceInvalidArgument:
		return false
	}
	return true
}

// ClassifyPersistence maps a database or blob store error into the taxonomy
func ClassifyPersistence(err error) *PersistenceError {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe
	}
	return &PersistenceError{Kind: persistenceKind(err), Err: err}
}

func persistenceKind(err error) PersistenceKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		return PersistenceTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgKind(pgErr.Code)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return PersistenceUnavailable
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return httpKind(apiErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return PersistenceTimeout
		}
		return PersistenceNetwork
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return PersistenceUnavailable
	}
	if errors.Is(err, gorm.ErrInvalidData) || errors.Is(err, gorm.ErrInvalidField) ||
		errors.Is(err, gorm.ErrInvalidValue) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return PersistenceInvalidArgument
	}

	// sqlite reports through plain messages
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "busy"):
		return PersistenceUnavailable
	case strings.Contains(msg, "too big"), strings.Contains(msg, "too large"):
		return PersistenceOversized
	case strings.Contains(msg, "readonly"), strings.Contains(msg, "permission"):
		return PersistencePermission
	case strings.Contains(msg, "disk is full"), strings.Contains(msg, "quota"):
		return PersistenceQuota
	case strings.Contains(msg, "constraint"):
		return PersistenceInvalidArgument
	}
	return PersistenceUnknown
}

// pgKind SQLSTATE classes, see PostgreSQL Appendix A
func pgKind(code string) PersistenceKind {
	switch code {
	case "42501", "28000", "28P01":
		return PersistencePermission
	case "57014":
		return PersistenceTimeout
	case "54000", "54001":
		return PersistenceOversized
	}
	if len(code) < 2 {
		return PersistenceUnknown
	}
	switch code[:2] {
	case "08":
		return PersistenceNetwork
	case "53":
		return PersistenceQuota
	case "57", "58":
		return PersistenceUnavailable
	case "22", "23":
		return PersistenceInvalidArgument
	}
	return PersistenceUnknown
}

func httpKind(status int) PersistenceKind {
	switch {
	case status == 401 || status == 403:
		return PersistencePermission
	case status == 408 || status == 504:
		return PersistenceTimeout
	case status == 413:
		return PersistenceOversized
	case status == 429:
		return PersistenceQuota
	case status == 400 || status == 404 || status == 409 || status == 412:
		return PersistenceInvalidArgument
	case status >= 500:
		return PersistenceUnavailable
	}
	return PersistenceUnknown
}
