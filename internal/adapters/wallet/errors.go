package wallet

import "errors"

// Sentinel kinds for signer errors.
var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrNoAddress    = errors.New("no active address")
	ErrRejected     = errors.New("dispatch rejected")
)
