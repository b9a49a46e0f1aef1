package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/porton/gate-relay/internal/audit"
	"github.com/porton/gate-relay/internal/clock"
	apperrors "github.com/porton/gate-relay/internal/errors"
	"github.com/porton/gate-relay/internal/metrics"
	"github.com/porton/gate-relay/internal/model"
	"github.com/porton/gate-relay/internal/repository"
	"github.com/porton/gate-relay/internal/schedule"
	"github.com/porton/gate-relay/internal/sse"
	"github.com/porton/gate-relay/internal/util"
)

// EventPublisher receives access events for live subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event sse.Event) error
}

// OpenResult is returned for a granted open.
type OpenResult struct {
	Username string
}

// AccessService decides whether a PIN may open the gate right now, records
// the attempt and triggers the actuator.
type AccessService struct {
	codes          repository.CodeRepository
	logs           repository.AccessLogRepository
	actuator       GateActuator
	clock          clock.Clock
	events         EventPublisher
	metrics        *metrics.Metrics
	logUnknownPINs bool
}

func NewAccessService(
	codes repository.CodeRepository,
	logs repository.AccessLogRepository,
	actuator GateActuator,
	clk clock.Clock,
	events EventPublisher,
	m *metrics.Metrics,
	logUnknownPINs bool,
) *AccessService {
	return &AccessService{
		codes:          codes,
		logs:           logs,
		actuator:       actuator,
		clock:          clk,
		events:         events,
		metrics:        m,
		logUnknownPINs: logUnknownPINs,
	}
}

// Open runs one open attempt. Errors are *apperrors.AppError with codes
// INVALID_FORMAT, DENIED, STORE_ERROR or ACTUATOR_ERROR.
func (s *AccessService) Open(ctx context.Context, pin string) (*OpenResult, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		s.metrics.ObserveOpen(model.OutcomeInvalid)
		return nil, apperrors.InvalidFormat("PIN is required")
	}

	code, err := s.codes.FindByPIN(ctx, pin)
	if err != nil {
		log.Error().Err(err).Str("pin", util.MaskPIN(pin)).Msg("code lookup failed")
		s.metrics.ObserveOpen(model.OutcomeStoreError)
		return nil, apperrors.Store(err)
	}

	now := s.clock.Now()

	if code == nil {
		if s.logUnknownPINs {
			s.recordDenial(ctx, pin, model.UnknownUsername, model.ReasonUnknownCode)
		}
		s.deny(ctx, pin, model.UnknownUsername, model.ReasonUnknownCode)
		return nil, apperrors.Denied()
	}

	allowed, err := schedule.IsAllowed(*code, now)
	if err != nil {
		log.Warn().
			Err(err).
			Str("pin", util.MaskPIN(pin)).
			Str("startTime", code.StartTime).
			Str("endTime", code.EndTime).
			Msg("stored schedule is malformed, denying")
		s.recordDenial(ctx, pin, code.Username, model.ReasonInvalidSchedule)
		s.deny(ctx, pin, code.Username, model.ReasonInvalidSchedule)
		return nil, apperrors.Denied()
	}
	if !allowed {
		s.recordDenial(ctx, pin, code.Username, model.ReasonOutsideSchedule)
		s.deny(ctx, pin, code.Username, model.ReasonOutsideSchedule)
		return nil, apperrors.Denied()
	}

	if err := s.logs.Append(ctx, s.newEntry(pin, code.Username, nil)); err != nil {
		log.Error().Err(err).Str("pin", util.MaskPIN(pin)).Msg("failed to record granted access")
		s.metrics.ObserveOpen(model.OutcomeStoreError)
		return nil, apperrors.Store(err)
	}

	if err := s.actuator.Trigger(ctx); err != nil {
		reason := string(model.ReasonActuatorFailure)
		if logErr := s.logs.Append(ctx, s.newEntry(pin, code.Username, &reason)); logErr != nil {
			log.Error().Err(logErr).Msg("failed to record actuator failure")
		}

		audit.Log(ctx, audit.Event{
			Type:     audit.EventActuatorFailure,
			PIN:      pin,
			Username: code.Username,
			Details:  map[string]interface{}{"error": err},
		})
		s.publish(ctx, pin, code.Username, model.OutcomeActuatorError, model.ReasonActuatorFailure)
		s.metrics.ObserveOpen(model.OutcomeActuatorError)
		return nil, apperrors.Actuator(err)
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventOpenGranted,
		PIN:      pin,
		Username: code.Username,
	})
	s.publish(ctx, pin, code.Username, model.OutcomeGranted, "")
	s.metrics.ObserveOpen(model.OutcomeGranted)

	return &OpenResult{Username: code.Username}, nil
}

// TestActuator fires the gate without a PIN, for operators checking the webhook.
func (s *AccessService) TestActuator(ctx context.Context) error {
	err := s.actuator.Trigger(ctx)

	details := map[string]interface{}{"success": err == nil}
	if err != nil {
		details["error"] = err
	}
	audit.Log(ctx, audit.Event{Type: audit.EventWebhookTest, Details: details})

	if err != nil {
		return apperrors.Actuator(err)
	}
	return nil
}

func (s *AccessService) newEntry(pin, username string, errorMessage *string) model.AccessLogEntry {
	return model.AccessLogEntry{
		ID:           uuid.NewString(),
		Timestamp:    s.clock.Now().UTC(),
		PIN:          pin,
		Username:     username,
		Success:      errorMessage == nil,
		ErrorMessage: errorMessage,
	}
}

// recordDenial appends a failed attempt. A write failure is logged and
// otherwise ignored so the caller still gets DENIED.
func (s *AccessService) recordDenial(ctx context.Context, pin, username string, reason model.DenialReason) {
	msg := string(reason)
	if err := s.logs.Append(ctx, s.newEntry(pin, username, &msg)); err != nil {
		log.Error().Err(err).Str("pin", util.MaskPIN(pin)).Msg("failed to record denied access")
	}
}

func (s *AccessService) deny(ctx context.Context, pin, username string, reason model.DenialReason) {
	audit.Log(ctx, audit.Event{
		Type:     audit.EventOpenDenied,
		PIN:      pin,
		Username: username,
		Details:  map[string]interface{}{"reason": string(reason)},
	})
	s.publish(ctx, pin, username, model.OutcomeDenied, reason)
	s.metrics.ObserveOpen(model.OutcomeDenied)
}

func (s *AccessService) publish(ctx context.Context, pin, username string, outcome model.OpenOutcome, reason model.DenialReason) {
	if s.events == nil {
		return
	}

	event, err := sse.NewEvent(sse.EventTypeAccess, sse.AccessEvent{
		PIN:       util.MaskPIN(pin),
		Username:  username,
		Success:   outcome == model.OutcomeGranted,
		Outcome:   string(outcome),
		Reason:    string(reason),
		Timestamp: s.clock.Now(),
	})
	if err == nil {
		err = s.events.Publish(ctx, event)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("failed to publish access event")
	}
}
