// Package wallet defines the capability interface for the external signing
// collaborator that authorizes and broadcasts score submissions. The core
// treats every failure from a signer as opaque and never retries on its own.
package wallet

import (
	"context"

	"github.com/okian/arcboard/internal/domain/model"
)

// Permission is a capability the application requests from a signer.
type Permission string

// Permissions requested before dispatching submissions.
const (
	PermAccessAddress   Permission = "ACCESS_ADDRESS"
	PermSignTransaction Permission = "SIGN_TRANSACTION"
	PermDispatch        Permission = "DISPATCH"
)

// Tag is one name/value pair attached to a dispatched message.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is an unsigned submission handed to a signer for signing and
// broadcast. Target is the ledger process that will consume it.
type Message struct {
	Target string `json:"process"`
	Tags   []Tag  `json:"tags"`
	Data   string `json:"data"`
}

// Signer is the external wallet collaborator. Concrete implementations may
// be a browser extension bridge, a hardware key, or a test stub.
type Signer interface {
	// Connect requests the given permissions from the signer.
	Connect(ctx context.Context, permissions ...Permission) error

	// ActiveAddress returns the id of the currently selected account.
	ActiveAddress(ctx context.Context) (model.PlayerID, error)

	// Dispatch signs and broadcasts msg, returning the assigned reference id.
	Dispatch(ctx context.Context, msg Message) (model.LedgerRef, error)

	// Disconnect releases the connection and any granted permissions.
	Disconnect(ctx context.Context) error
}
