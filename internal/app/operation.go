package app

import (
	"strings"
	"time"
)

// Operation tracks the CLI command being run. Its ID tags every log line
// the command writes, so one run can be followed through ovc.log.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	StartedAt  time.Time
}

// NewOperation creates an operation started at now. Its ID is the UTC start
// time in compact ISO form.
func NewOperation(name string, params []string, now time.Time) *Operation {
	return &Operation{
		ID:         now.UTC().Format("20060102T150405Z"),
		Name:       name,
		Parameters: strings.Join(params, " "),
		Status:     "success",
		StartedAt:  now,
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Failed returns true if Fail was called.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}
