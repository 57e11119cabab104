// Package position owns position concurrent groups: a set of positions held
// by the same person, grouped under a globally sequenced "G" code.
package position

import "time"

const (
	groupSeparator = "G"
	sequenceWidth  = 4
)

// ConcurrentGroup ties several positions together under one allocated code.
type ConcurrentGroup struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	PositionIDs []int64   `json:"positionIds"`
	CreatedAt   time.Time `json:"createdAt"`
}
