package state

import (
	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// EventType is the kind of a notification event.
type EventType byte

// Event types emitted by the core.
const (
	// EventDeposit is emitted for every deposited coin.
	EventDeposit EventType = iota
	// EventBlockSubmitted is emitted for every operator batch commitment.
	EventBlockSubmitted
	// EventExitStarted is emitted when an exit claim is accepted.
	EventExitStarted
	// EventChallenged is emitted when an exit is contested.
	EventChallenged
	// EventResponded is emitted when a contested exit is rebutted.
	EventResponded
	// EventExitFinalized is emitted when an exit settles and the coin
	// leaves the chain.
	EventExitFinalized
	// EventExitInvalidated is emitted when an exit is thrown out and the
	// coin returns to the deposited state.
	EventExitInvalidated
	// EventSlashed is emitted when a bond moves from the dishonest party
	// to its counterparty.
	EventSlashed
	// EventWithdrawal is emitted when an exited coin is handed back to
	// its owner.
	EventWithdrawal
)

// String implements the stringer interface.
func (e EventType) String() string {
	switch e {
	case EventDeposit:
		return "Deposit"
	case EventBlockSubmitted:
		return "BlockSubmitted"
	case EventExitStarted:
		return "ExitStarted"
	case EventChallenged:
		return "Challenged"
	case EventResponded:
		return "Responded"
	case EventExitFinalized:
		return "ExitFinalized"
	case EventExitInvalidated:
		return "ExitInvalidated"
	case EventSlashed:
		return "Slashed"
	case EventWithdrawal:
		return "Withdrawal"
	default:
		return "Unknown"
	}
}

// NotificationEvent is a notification about a state change delivered to
// subscribers.
type NotificationEvent struct {
	Type EventType `json:"type"`
	// Slot is the coin the event refers to, if any.
	Slot uint64 `json:"slot"`
	// Block is the child block number the event refers to, if any.
	Block uint64 `json:"block"`
	// Address is the party the event refers to: depositor, exitor,
	// challenger or slash receiver depending on Type.
	Address util.Uint160 `json:"address"`
	// Amount is the value moved, if any.
	Amount *uint256.Int `json:"amount,omitempty"`
}
