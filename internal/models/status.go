package models

import "strings"

// Status is the canonical ticket work state.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "InProgress"
	StatusPending    Status = "Pending"
	StatusBlocked    Status = "Blocked"
	StatusWaiting    Status = "Waiting"
)

var statusLabels = map[string]Status{
	"open":        StatusOpen,
	"new":         StatusOpen,
	"in_progress": StatusInProgress,
	"in progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"pending":     StatusPending,
	"blocked":     StatusBlocked,
	"waiting":     StatusWaiting,
	"on hold":     StatusWaiting,
	"on_hold":     StatusWaiting,
}

// ParseStatus canonicalizes a raw status value. Snake case, spaced and
// upper case variants all fold to the same state; unknown values become
// Open.
func ParseStatus(raw string) Status {
	if s, ok := statusLabels[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusOpen
}
