package ledger

import (
	"time"
)

// Status enumerates ledger order lifecycle stages, in strict forward order.
type Status string

const (
	// StatusDraft is the initial state of a freshly generated order.
	StatusDraft Status = "P1"
	// StatusPositionConfirmed marks confirmed organisational positions.
	StatusPositionConfirmed Status = "P2"
	// StatusResponsibilityConfirmed marks confirmed per-position responsibilities.
	StatusResponsibilityConfirmed Status = "P3"
	// StatusExecutiveConfirmed marks executive sign-off.
	StatusExecutiveConfirmed Status = "P4"
	// StatusFinalized is the terminal state; only a finalized order can seed
	// the next order or spawn a department-head ledger.
	StatusFinalized Status = "P5"
)

// Label returns a human-readable name for the status.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPositionConfirmed:
		return "position confirmed"
	case StatusResponsibilityConfirmed:
		return "responsibility confirmed"
	case StatusExecutiveConfirmed:
		return "executive confirmed"
	case StatusFinalized:
		return "finalized"
	default:
		return string(s)
	}
}

// Order is the top-level, year-sequenced regulatory record.
type Order struct {
	ID        int64
	Title     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Finalized reports whether the order reached its terminal state.
func (o *Order) Finalized() bool {
	return o != nil && o.Status == StatusFinalized
}

// Transition names one gated edge of the lifecycle.
type Transition struct {
	Op   string
	From Status
	To   Status
}

// Transition operations. Each requires the exact predecessor status; there is
// no force path and no skipping.
const (
	OpConfirm               = "confirm"
	OpCancelConfirm         = "cancelConfirm"
	OpConfirmResponsibility = "confirmResponsibility"
	OpCancelResponsibility  = "cancelResponsibility"
	OpConfirmExecutive      = "confirmExecutive"
	OpCancelExecutive       = "cancelExecutive"
	OpFinalConfirm          = "finalConfirmExecutive"
)

var transitions = map[string]Transition{
	OpConfirm:               {Op: OpConfirm, From: StatusDraft, To: StatusPositionConfirmed},
	OpCancelConfirm:         {Op: OpCancelConfirm, From: StatusPositionConfirmed, To: StatusDraft},
	OpConfirmResponsibility: {Op: OpConfirmResponsibility, From: StatusPositionConfirmed, To: StatusResponsibilityConfirmed},
	OpCancelResponsibility:  {Op: OpCancelResponsibility, From: StatusResponsibilityConfirmed, To: StatusPositionConfirmed},
	OpConfirmExecutive:      {Op: OpConfirmExecutive, From: StatusResponsibilityConfirmed, To: StatusExecutiveConfirmed},
	OpCancelExecutive:       {Op: OpCancelExecutive, From: StatusExecutiveConfirmed, To: StatusResponsibilityConfirmed},
	OpFinalConfirm:          {Op: OpFinalConfirm, From: StatusExecutiveConfirmed, To: StatusFinalized},
}

// TransitionFor returns the edge for the named operation.
func TransitionFor(op string) (Transition, bool) {
	t, ok := transitions[op]
	return t, ok
}
