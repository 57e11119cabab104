// Package inspection owns implementation-inspection plans and their control
// items. It is also the provider of the all-items-approved predicate that
// gates department-head ledger confirmation.
package inspection

import "time"

const (
	planSeparator = "P"
	itemSeparator = "I"
	sequenceWidth = 4
)

// ApprovalStatus is the disposition of a single control item.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Plan is an inspection plan scoped to a ledger order. Its 13-character code
// is the 8-character order title, the plan separator, and a 4-digit sequence.
type Plan struct {
	Code          string    `json:"code"`
	LedgerOrderID int64     `json:"ledgerOrderId"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Item is one control item of a plan. Its code is the full plan code, the
// item separator, and a 4-digit sequence.
type Item struct {
	Code      string         `json:"code"`
	PlanCode  string         `json:"planCode"`
	Content   string         `json:"content"`
	Status    ApprovalStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
