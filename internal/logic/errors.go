package logic

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidCredentials is returned for a wrong username or password. The
// message is identical in both cases so account existence is not revealed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNotFound is returned when a referenced contribution does not exist.
var ErrNotFound = errors.New("contribution not found")

// ValidationError names the offending field of a rejected input. Handlers map
// it to a 400; it is never logged as a server fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// LockoutError rejects a login attempt before the credential check. RetryAfter
// tells the client when trying again is worthwhile.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

// BatchError aborts a settlement or bulk operation as a whole. IneligibleIDs
// lists the contributions that failed the precondition; nothing was modified.
type BatchError struct {
	IneligibleIDs []string
	Reason        string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.IneligibleIDs, ", "))
}

// SettlementConflictError is surfaced only after the code generator exhausted
// its retries. The condition is transient; the client may simply try again.
type SettlementConflictError struct {
	Attempts int
}

func (e *SettlementConflictError) Error() string {
	return fmt.Sprintf("could not generate a unique settlement code after %d attempts", e.Attempts)
}
