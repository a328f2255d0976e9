package xerrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
)

// Postgres error codes the posting engine cares about.
const PGUniqueViolation = "23505"

// ParsePGErrorCode extracts the SQLSTATE from a pgx error, "unknown" otherwise.
func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}

// ValidationError is a rejected input: the specific violated rule is carried
// so callers see which precondition failed. Raised before any write.
type ValidationError struct {
	Rule string
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Msg)
}

// Validation builds a ValidationError with a formatted message.
func Validation(rule, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConflictError is a rejected duplicate: an already-used voucher number or a
// repeated revaluation for the same account and date. Nothing is written.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Msg)
}

// Conflict builds a ConflictError with a formatted message.
func Conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
