package db

import (
	"errors"

	"github.com/lib/pq"
)

const (
	codeUniqueViolation      = pq.ErrorCode("23505")
	codeForeignKeyViolation  = pq.ErrorCode("23503")
	codeCheckViolation       = pq.ErrorCode("23514")
	codeExclusionViolation   = pq.ErrorCode("23P01")
	codeSerializationFailure = pq.ErrorCode("40001")
	codeDeadlockDetected     = pq.ErrorCode("40P01")
)

func pgError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

func matches(err error, code pq.ErrorCode, constraint string) bool {
	pqErr, ok := pgError(err)
	if !ok || pqErr.Code != code {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsUniqueViolation reports a unique index violation. An empty constraint
// matches any unique index.
func IsUniqueViolation(err error, constraint string) bool {
	return matches(err, codeUniqueViolation, constraint)
}

func IsExclusionViolation(err error, constraint string) bool {
	return matches(err, codeExclusionViolation, constraint)
}

func IsCheckViolation(err error, constraint string) bool {
	return matches(err, codeCheckViolation, constraint)
}

func IsForeignKeyViolation(err error, constraint string) bool {
	return matches(err, codeForeignKeyViolation, constraint)
}

func IsRetryable(err error) bool {
	pqErr, ok := pgError(err)
	if !ok {
		return false
	}
	return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
}
