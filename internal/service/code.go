package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/porton/gate-relay/internal/audit"
	apperrors "github.com/porton/gate-relay/internal/errors"
	"github.com/porton/gate-relay/internal/model"
	"github.com/porton/gate-relay/internal/repository"
	"github.com/porton/gate-relay/internal/util"
)

type CreateCodeParams struct {
	PIN       string `json:"pin" validate:"pin"`
	Username  string `json:"username"`
	Days      []int  `json:"days" validate:"dive,min=0,max=6"`
	StartTime string `json:"startTime" validate:"clock"`
	EndTime   string `json:"endTime" validate:"clock"`
}

// UpdateCodeParams replaces only the non-nil fields.
type UpdateCodeParams struct {
	Username  *string `json:"username"`
	Days      []int   `json:"days" validate:"omitempty,dive,min=0,max=6"`
	StartTime *string `json:"startTime" validate:"omitempty,clock"`
	EndTime   *string `json:"endTime" validate:"omitempty,clock"`
}

// CodeService manages the set of access codes.
type CodeService struct {
	codes repository.CodeRepository
}

func NewCodeService(codes repository.CodeRepository) *CodeService {
	return &CodeService{codes: codes}
}

func (s *CodeService) List(ctx context.Context) ([]model.AccessCode, error) {
	codes, err := s.codes.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list codes")
		return nil, apperrors.Store(err)
	}
	return codes, nil
}

func (s *CodeService) Create(ctx context.Context, params CreateCodeParams) (*model.AccessCode, error) {
	params.PIN = strings.TrimSpace(params.PIN)
	params.Username = strings.TrimSpace(params.Username)
	if params.StartTime == "" {
		params.StartTime = model.DefaultStartTime
	}
	if params.EndTime == "" {
		params.EndTime = model.DefaultEndTime
	}
	if params.Days == nil {
		params.Days = []int{}
	}

	if fields, err := util.ValidateStruct(params); err != nil {
		return nil, apperrors.InvalidFormat("Invalid data").WithDetails(fields)
	}

	code := model.AccessCode{
		PIN:       params.PIN,
		Username:  params.Username,
		Days:      model.Weekdays(params.Days).Normalized(),
		StartTime: params.StartTime,
		EndTime:   params.EndTime,
	}

	if err := s.codes.Create(ctx, code); err != nil {
		if errors.Is(err, repository.ErrDuplicatePIN) {
			return nil, apperrors.AlreadyExists("Code")
		}
		log.Error().Err(err).Str("pin", util.MaskPIN(code.PIN)).Msg("failed to create code")
		return nil, apperrors.Store(err)
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventCodeCreate,
		PIN:      code.PIN,
		Username: code.Username,
	})

	return &code, nil
}

// Update applies params to the code with exactly this PIN. The PIN itself
// cannot change.
func (s *CodeService) Update(ctx context.Context, pin string, params UpdateCodeParams) (*model.AccessCode, error) {
	pin = strings.TrimSpace(pin)

	if fields, err := util.ValidateStruct(params); err != nil {
		return nil, apperrors.InvalidFormat("Invalid data").WithDetails(fields)
	}

	code, err := s.codes.FindByPIN(ctx, pin)
	if err != nil {
		log.Error().Err(err).Str("pin", util.MaskPIN(pin)).Msg("failed to load code")
		return nil, apperrors.Store(err)
	}
	if code == nil {
		return nil, apperrors.NotFound("Code")
	}

	if params.Username != nil {
		code.Username = strings.TrimSpace(*params.Username)
	}
	if params.Days != nil {
		code.Days = model.Weekdays(params.Days).Normalized()
	}
	if params.StartTime != nil {
		code.StartTime = *params.StartTime
	}
	if params.EndTime != nil {
		code.EndTime = *params.EndTime
	}

	if err := s.codes.Update(ctx, *code); err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return nil, apperrors.NotFound("Code")
		}
		log.Error().Err(err).Str("pin", util.MaskPIN(pin)).Msg("failed to update code")
		return nil, apperrors.Store(err)
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventCodeUpdate,
		PIN:      code.PIN,
		Username: code.Username,
	})

	return code, nil
}

// Delete removes the code if present; deleting a missing PIN succeeds.
func (s *CodeService) Delete(ctx context.Context, pin string) error {
	pin = strings.TrimSpace(pin)

	if err := s.codes.Delete(ctx, pin); err != nil {
		log.Error().Err(err).Str("pin", util.MaskPIN(pin)).Msg("failed to delete code")
		return apperrors.Store(err)
	}

	audit.Log(ctx, audit.Event{Type: audit.EventCodeDelete, PIN: pin})
	return nil
}
