package services

import (
	stderrors "errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kadrohq/kadro/pkg/metrics"
	"github.com/kadrohq/kadro/pkg/serrors"
)

var ErrAllocationContention = serrors.NewError("ALLOCATION_CONTENTION", "allocation retried past its attempt budget", "Numbering.Errors.AllocationContention")

// retryableConflict reports whether err is the kind of transient conflict a
// serialized allocation is allowed to retry: a serialization failure,
// deadlock, or a unique-constraint race between two issuers.
func retryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.UniqueViolation:
		return true
	}
	return false
}

// withAllocationRetry runs fn up to maxRetries+1 times, backing off between
// attempts, and surfaces ErrAllocationContention once the budget is spent.
// Non-conflict errors abort immediately. Context cancellation propagates and
// rolls back the open attempt.
func withAllocationRetry(maxRetries int, fn func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	attempt := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if retryableConflict(err) {
			metrics.AllocationConflicts.Inc()
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxRetries))
	if err := backoff.Retry(attempt, policy); err != nil {
		if retryableConflict(err) {
			return ErrAllocationContention
		}
		return err
	}
	return nil
}
