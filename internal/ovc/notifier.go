package ovc

import "context"

// AddressResolver returns the network addresses of a device, most preferred first.
type AddressResolver interface {
	Addresses(ctx context.Context, deviceID string) ([]string, error)
	// Invalidate drops anything cached for deviceID.
	Invalidate(deviceID string)
}

// AlertEvent describes a change to the alerts of one monitored file.
type AlertEvent struct {
	FileID  string
	AlertID string
	State   string
}

// Notifier is told about alert changes after they are committed.
// Delivery is fire-and-forget and never fails the operation.
type Notifier interface {
	AlertsChanged(event AlertEvent)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) AlertsChanged(AlertEvent) {}
