package ledger

import (
	"errors"
	"fmt"
)

// Sentinel kinds for ledger query errors.
var (
	ErrMalformedResponse = errors.New("malformed ledger response")
	ErrQueryRejected     = errors.New("ledger query rejected")
)

// QueryError wraps a failed read with the action that issued it. Callers
// are expected to downgrade it to an empty/zero result for display and log
// it, never to crash on it.
type QueryError struct {
	Action string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("ledger query %q failed: %v", e.Action, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// newQueryError wraps err for action, keeping existing QueryErrors intact.
func newQueryError(action string, err error) error {
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return &QueryError{Action: action, Err: err}
}
