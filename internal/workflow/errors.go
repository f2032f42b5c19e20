package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a transition targets a step that
	// is not the current frontier, or a step already in a terminal status.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrUnknownStep is returned when a label is not part of the order's
	// step sequence.
	ErrUnknownStep = errors.New("unknown workflow step")
	// ErrInvalidAcknowledgement is returned when a goods-receipt response is
	// recorded against a step that does not accept one.
	ErrInvalidAcknowledgement = errors.New("invalid goods-receipt acknowledgement")
	// ErrUnknownOrderType is returned when no step template exists for the
	// requested order type.
	ErrUnknownOrderType = errors.New("unknown order type")
)
