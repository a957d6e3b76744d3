// Package ledger owns the marketplace's shared mutable state: account
// balances and ticket inventory. Ledgers are bound to a repository view, so
// a ledger built from a transactional store mutates inside that transaction.
package ledger

import (
	"errors"

	apperrors "github.com/qa327/ticket-marketplace/pkg/util/errorutil"
)

// storageError passes domain errors through and treats anything else as a
// storage failure.
func storageError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewPersistenceError(err)
}
