package app

import (
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 45, 0, time.FixedZone("CEST", 2*60*60))

	tests := []struct {
		name       string
		operation  string
		params     []string
		wantParams string
	}{
		{
			name:       "with parameters",
			operation:  "ScanDirectory",
			params:     []string{"--dir", "d-1"},
			wantParams: "--dir d-1",
		},
		{
			name:       "no parameters",
			operation:  "ListAlerts",
			wantParams: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(tt.operation, tt.params, now)

			if op.Name != tt.operation {
				t.Errorf("Name = %q, want %q", op.Name, tt.operation)
			}
			if op.Parameters != tt.wantParams {
				t.Errorf("Parameters = %q, want %q", op.Parameters, tt.wantParams)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want %q", op.Status, "success")
			}
			if op.ID != "20240615T123045Z" {
				t.Errorf("ID = %q, want %q", op.ID, "20240615T123045Z")
			}
		})
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("Restore", nil, time.Now())
	if op.Failed() {
		t.Fatal("new operation reports failure")
	}
	op.Fail()
	if !op.Failed() || op.Status != "error" {
		t.Errorf("after Fail: Status = %q", op.Status)
	}
}
