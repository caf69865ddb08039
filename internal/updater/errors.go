package updater

import (
	"errors"
	"fmt"
)

// Machine-readable failure codes. The API maps these onto HTTP statuses;
// the CLI prints them verbatim.
const (
	ErrCodeInvalidState   = "INVALID_STATE"   // operation not allowed in the current state
	ErrCodeCheckFailed    = "CHECK_FAILED"    // release lookup failed
	ErrCodeNoUpdate       = "NO_UPDATE"       // already on the latest release
	ErrCodeApplyFailed    = "APPLY_FAILED"    // download or binary swap failed
	ErrCodeBackupFailed   = "BACKUP_FAILED"   // could not preserve the running binary
	ErrCodeRollbackFailed = "ROLLBACK_FAILED" // backup restore failed
	ErrCodeNoBackup       = "NO_BACKUP"       // rollback requested with nothing to restore
	ErrCodeDisabled       = "DISABLED"        // self-update gated off (no write permission)
)

// Error pairs a failure code with operator-facing detail. The underlying
// cause stays reachable through Unwrap for errors.Is/As chains.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err carries the given update failure code.
func IsCode(err error, code string) bool {
	var updateErr *Error
	return errors.As(err, &updateErr) && updateErr.Code == code
}

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
