package submit

import (
	"errors"
	"fmt"
)

// Sentinel kinds for submission errors.
var (
	// ErrInvalidScore marks a submission that failed client-side validation
	// and was never handed to the signer.
	ErrInvalidScore = errors.New("invalid score")

	// ErrMissingGame marks a submission without a game id.
	ErrMissingGame = errors.New("missing game id")
)

// SubmissionError wraps a signer or ledger rejection. The pipeline never
// retries on its own; re-submission has user-visible cost on the ledger, so
// that call belongs to the caller.
type SubmissionError struct {
	GameID string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("score submission for game %q failed: %v", e.GameID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
