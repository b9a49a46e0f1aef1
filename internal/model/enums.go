package model

// DenialReason explains a failed open attempt in the access log.
type DenialReason string

const (
	ReasonUnknownCode     DenialReason = "unknown code"
	ReasonOutsideSchedule DenialReason = "outside allowed schedule"
	ReasonInvalidSchedule DenialReason = "invalid stored schedule"
	ReasonActuatorFailure DenialReason = "gate actuator failed"
)

// OpenOutcome labels the terminal state of an open request.
type OpenOutcome string

const (
	OutcomeGranted       OpenOutcome = "granted"
	OutcomeDenied        OpenOutcome = "denied"
	OutcomeInvalid       OpenOutcome = "invalid"
	OutcomeStoreError    OpenOutcome = "store_error"
	OutcomeActuatorError OpenOutcome = "actuator_error"
)
