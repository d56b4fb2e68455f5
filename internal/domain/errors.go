package domain

import (
	"errors"
	"fmt"
)

// Kind groups error codes into the coarse categories the transport layer
// maps onto client-visible statuses.
type Kind int

const (
	// KindUnknown is the fallback for errors raised outside this package.
	KindUnknown Kind = iota
	// KindState marks wrong-phase and wrong-turn failures.
	KindState
	// KindValidation marks malformed input: card data, player counts, effect parameters.
	KindValidation
	// KindConflict marks attempts to reuse an occupied or consumed card.
	KindConflict
	// KindCapacity marks full-hand, empty-deck and similar limit failures.
	KindCapacity
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Phase / turn errors
	CodeGameOver     Code = "GAME_OVER"
	CodeWrongPhase   Code = "WRONG_PHASE"
	CodeNotYourTurn  Code = "NOT_YOUR_TURN"
	CodeGameNotFound Code = "GAME_NOT_FOUND"

	// Validation errors
	CodeInvalidPlayerCount   Code = "INVALID_PLAYER_COUNT"
	CodeInvalidCardData      Code = "INVALID_CARD_DATA"
	CodeInvalidFeaturePoints Code = "INVALID_FEATURE_POINTS"
	CodeInvalidEventEffect   Code = "INVALID_EVENT_EFFECT"
	CodeInvalidSnapshot      Code = "INVALID_SNAPSHOT"

	// Conflict errors
	CodeResourceAssigned     Code = "RESOURCE_ALREADY_ASSIGNED"
	CodeResourceUnavailable  Code = "RESOURCE_UNAVAILABLE"
	CodeFeatureCompleted     Code = "FEATURE_ALREADY_COMPLETED"
	CodeEventTriggered       Code = "EVENT_ALREADY_TRIGGERED"
	CodeEventNotTriggered    Code = "EVENT_NOT_TRIGGERED"
	CodeEventResolved        Code = "EVENT_ALREADY_RESOLVED"
	CodePlayerNotFound       Code = "PLAYER_NOT_FOUND"
	CodeCardNotFound         Code = "CARD_NOT_FOUND"
	CodeFeatureNotFound      Code = "FEATURE_NOT_FOUND"

	// Capacity errors
	CodeHandFull              Code = "HAND_FULL"
	CodeDeckEmpty             Code = "DECK_EMPTY"
	CodeInsufficientFeatures  Code = "INSUFFICIENT_FEATURE_CARDS"
	CodeInsufficientResources Code = "INSUFFICIENT_RESOURCE_CARDS"
)

// Kind maps an error code to its category.
func (c Code) Kind() Kind {
	switch c {
	case CodeGameOver, CodeWrongPhase, CodeNotYourTurn, CodeGameNotFound:
		return KindState

	case CodeInvalidPlayerCount,
		CodeInvalidCardData,
		CodeInvalidFeaturePoints,
		CodeInvalidEventEffect,
		CodeInvalidSnapshot:
		return KindValidation

	case CodeResourceAssigned,
		CodeResourceUnavailable,
		CodeFeatureCompleted,
		CodeEventTriggered,
		CodeEventNotTriggered,
		CodeEventResolved,
		CodePlayerNotFound,
		CodeCardNotFound,
		CodeFeatureNotFound:
		return KindConflict

	case CodeHandFull, CodeDeckEmpty, CodeInsufficientFeatures, CodeInsufficientResources:
		return KindCapacity

	default:
		return KindUnknown
	}
}

// Error is a domain failure carrying a machine-readable code.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a coded domain error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the domain code from an error, or CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// KindOf extracts the error category from an error.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}
