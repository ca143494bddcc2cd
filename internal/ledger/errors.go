package ledger

import "errors"

var (
	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("ledger: request not found")
	// ErrDuplicate is returned when Create targets an oid that already has a
	// row. Callers resubmitting must Delete first; the ledger never upserts.
	ErrDuplicate = errors.New("ledger: request already exists")
)
