package model

import (
	"fmt"
	"strconv"
	"strings"
)

// RecordStatus is the soft-delete tag carried by every persisted entity.
// Default queries only return Active rows.
type RecordStatus string

const (
	StatusActive  RecordStatus = "active"
	StatusDeleted RecordStatus = "deleted"
)

// AlertType classifies the change that raised an alert.
type AlertType string

const (
	AlertCreated  AlertType = "CREATED" // reserved, the first scan never raises it
	AlertModified AlertType = "MODIFIED"
	AlertDeleted  AlertType = "DELETED"
)

// AlertState is the lifecycle position of an alert.
//
//	new -> acknowledged -> cleared
//	new -> cleared
//
// Cleared is terminal.
type AlertState string

const (
	AlertNew          AlertState = "new"
	AlertAcknowledged AlertState = "acknowledged"
	AlertCleared      AlertState = "cleared"
)

var alertTransitions = map[AlertState][]AlertState{
	AlertNew:          {AlertAcknowledged, AlertCleared},
	AlertAcknowledged: {AlertCleared},
	AlertCleared:      {},
}

// CanTransition reports whether an alert may move from one state to another.
func CanTransition(from, to AlertState) bool {
	for _, s := range alertTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether the alert still needs operator attention.
func (s AlertState) IsOpen() bool {
	return s == AlertNew || s == AlertAcknowledged
}

// ScanStatus summarizes a directory scan in its scan log.
type ScanStatus string

const (
	ScanCompleted ScanStatus = "completed" // every file scanned
	ScanPartial   ScanStatus = "partial"   // some files failed
	ScanFailed    ScanStatus = "failed"    // no file could be scanned
)

// ParseAlertState validates a textual alert state.
func ParseAlertState(s string) (AlertState, error) {
	switch st := AlertState(strings.ToLower(s)); st {
	case AlertNew, AlertAcknowledged, AlertCleared:
		return st, nil
	default:
		return "", fmt.Errorf("unknown alert state: %q", s)
	}
}

// ParseSize converts the scanner's textual file size into bytes.
// The text form stays canonical in storage; this is a convenience accessor.
func ParseSize(size string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(size), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// AlertMessage renders the human-readable message stored with an alert.
func AlertMessage(fileName string, t AlertType) string {
	return fmt.Sprintf("File %s was %s.", fileName, strings.ToLower(string(t)))
}
