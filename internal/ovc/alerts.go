package ovc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ovc-go/internal/database/sqlc"
	"ovc-go/internal/model"
)

// RestoreActor is recorded as the clearing actor of alerts closed by a restore.
const RestoreActor = "system:restore"

// GetAlert returns an alert by ID.
func (s *Service) GetAlert(ctx context.Context, id string) (*sqlc.FileAlert, error) {
	alert, err := s.db.FindAlert(ctx, id)
	if err != nil {
		return nil, storeErr("finding alert", err)
	}
	if alert == nil {
		return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return alert, nil
}

// ListAlerts returns alerts matching filter, newest first.
func (s *Service) ListAlerts(ctx context.Context, filter AlertFilter) ([]*sqlc.FileAlert, error) {
	alerts, err := s.db.ListAlerts(ctx, filter)
	if err != nil {
		return nil, storeErr("listing alerts", err)
	}
	return alerts, nil
}

// Acknowledge moves a New alert to Acknowledged. An alert that is already
// acknowledged or cleared is left untouched and reported with
// ErrAlreadyAcknowledged or ErrAlreadyCleared.
func (s *Service) Acknowledge(ctx context.Context, alertID, actor string) (*sqlc.FileAlert, error) {
	return s.transition(ctx, alertID, model.AlertAcknowledged, actor)
}

// Clear moves a New or Acknowledged alert to Cleared. Clearing a cleared
// alert is reported with ErrAlreadyCleared.
func (s *Service) Clear(ctx context.Context, alertID, actor string) (*sqlc.FileAlert, error) {
	return s.transition(ctx, alertID, model.AlertCleared, actor)
}

func (s *Service) transition(ctx context.Context, alertID string, to model.AlertState, actor string) (*sqlc.FileAlert, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, fmt.Errorf("actor is required")
	}

	alert, err := s.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if err := s.applyTransition(ctx, alert, to, actor); err != nil {
		return nil, err
	}

	s.notifier.AlertsChanged(AlertEvent{FileID: alert.MonitoredFileID, AlertID: alert.ID, State: alert.State})
	s.logger.Info("alert updated", "alert_id", alert.ID, "state", alert.State, "by", actor)
	return alert, nil
}

// maxTransitionAttempts bounds re-reads of an alert whose state changed
// between read and write.
const maxTransitionAttempts = 3

// applyTransition validates and persists one state change of alert, updating
// it in place. When another writer moved the alert first, the stored alert is
// re-read and the transition re-checked against its new state. The caller
// notifies.
func (s *Service) applyTransition(ctx context.Context, alert *sqlc.FileAlert, to model.AlertState, actor string) error {
	for attempt := 1; ; attempt++ {
		err := s.tryTransition(ctx, alert, to, actor)
		if err == nil || !errors.Is(err, ErrConflict) || attempt == maxTransitionAttempts {
			return err
		}

		current, ferr := s.GetAlert(ctx, alert.ID)
		if ferr != nil {
			return ferr
		}
		*alert = *current
	}
}

func (s *Service) tryTransition(ctx context.Context, alert *sqlc.FileAlert, to model.AlertState, actor string) error {
	from := model.AlertState(alert.State)
	if !model.CanTransition(from, to) {
		switch from {
		case model.AlertCleared:
			return fmt.Errorf("alert %s: %w", alert.ID, ErrAlreadyCleared)
		case model.AlertAcknowledged:
			return fmt.Errorf("alert %s: %w", alert.ID, ErrAlreadyAcknowledged)
		default:
			return fmt.Errorf("alert %s cannot move from %s to %s", alert.ID, from, to)
		}
	}

	updated := *alert
	now := sql.NullTime{Time: s.now(), Valid: true}
	updated.State = string(to)
	switch to {
	case model.AlertAcknowledged:
		updated.AcknowledgedAt = now
		updated.AcknowledgedBy = actor
	case model.AlertCleared:
		updated.ClearedAt = now
		updated.ClearedBy = actor
	}

	if err := s.db.UpdateAlertState(ctx, &updated, string(from)); err != nil {
		return storeErr("updating alert", err)
	}
	*alert = updated
	alertTransitionsTotal.WithLabelValues(string(to)).Inc()
	return nil
}

// IsAcknowledged reports whether an alert was ever acknowledged.
func IsAcknowledged(a *sqlc.FileAlert) bool {
	return a.AcknowledgedAt.Valid
}

// IsCleared reports whether an alert has been cleared.
func IsCleared(a *sqlc.FileAlert) bool {
	return a.State == string(model.AlertCleared)
}
