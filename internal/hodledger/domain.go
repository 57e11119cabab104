// Package hodledger owns the department-head sub-ledger lifecycle. A sub-ledger
// is spawned once its parent ledger order is finalized and moves through a
// two-stage lifecycle of its own.
package hodledger

import "time"

// Status enumerates sub-ledger lifecycle stages.
type Status string

const (
	// StatusInProgress is the initial state of a generated sub-ledger.
	StatusInProgress Status = "P6"
	// StatusFinalized is the terminal state; only then may the next
	// sub-ledger generation begin.
	StatusFinalized Status = "P7"
)

// Label returns a human-readable name for the status.
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "in progress"
	case StatusFinalized:
		return "finalized"
	default:
		return string(s)
	}
}

// Ledger is a department-head sub-ledger scoped to exactly one ledger order.
type Ledger struct {
	ID            int64     `json:"id"`
	LedgerOrderID int64     `json:"ledgerOrderId"`
	Title         string    `json:"title"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
