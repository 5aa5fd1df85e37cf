package domain

import "errors"

// Lookup error taxonomy. A partial timeout is not an error; it is reported
// through SearchResult.TimedOutSubQueries.
var (
	ErrEmptyQuery          = errors.New("empty query")
	ErrNotFound            = errors.New("no matching entries")
	ErrTenantNotResolvable = errors.New("tenant not resolvable")
	ErrHardTimeout         = errors.New("search timed out")
	ErrRenderOverflow      = errors.New("rendered message exceeds size budget")
	ErrDeliveryFailure     = errors.New("reply delivery failed")
)
