package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"staycal/internal/app/uow"
	"staycal/internal/domain/availability"
)

const (
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// mapError turns driver errors the application reacts to into its own sentinels.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case codeExclusionViolation:
		return fmt.Errorf("%w: overlaps a stored stay (%s)", availability.ErrDateUnavailable, pqErr.Constraint)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", uow.ErrConcurrentUpdate, pqErr.Message)
	}
	return err
}
