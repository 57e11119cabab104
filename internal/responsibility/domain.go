// Package responsibility owns the responsibility aggregate: responsibilities
// assigned under a ledger order, their details, the management obligations
// attached to details, and department-manager manuals. Every record carries a
// hierarchically allocated code derived from its parent's code.
package responsibility

import "time"

// Code scheme constants. The sequence width is shared by every level; the
// detail scope keeps only the last nine characters of the responsibility code
// so detail codes stay bounded as the hierarchy deepens.
const (
	SequenceWidth    = 4
	DetailScopeChars = 9

	SeparatorDetail           = "D"
	SeparatorObligation       = "O"
	SeparatorNestedObligation = "MO"
	SeparatorManual           = "A"
)

// Responsibility is a top-level responsibility under a ledger order. Its code
// is the 8-character order title followed by the category letter and a
// 4-digit sequence.
type Responsibility struct {
	Code          string    `json:"code"`
	LedgerOrderID int64     `json:"ledgerOrderId"`
	Category      string    `json:"category"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Detail refines a responsibility.
type Detail struct {
	Code               string    `json:"code"`
	ResponsibilityCode string    `json:"responsibilityCode"`
	Content            string    `json:"content"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Obligation is a management obligation attached to a detail.
type Obligation struct {
	Code       string    `json:"code"`
	DetailCode string    `json:"detailCode"`
	OrgCode    string    `json:"orgCode"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Manual is a department-manager manual attached to an obligation.
type Manual struct {
	Code           string    `json:"code"`
	ObligationCode string    `json:"obligationCode"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
