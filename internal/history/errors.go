package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/wpphist/internal/wid"
)

var (
	// ErrInvalidArgument is matched by every *InvalidArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrAnchorNotFound reports that an anchor message key is not in the chat log.
	// Directional paging reports it as StatusAnchorNotFound instead of an error.
	ErrAnchorNotFound = errors.New("anchor not found")

	// ErrCanceled reports an aborted search.
	ErrCanceled = errors.New("canceled")

	// ErrSuperseded is the cancellation cause of a search preempted by a newer one.
	ErrSuperseded = errors.New("search superseded by a newer request")

	// ErrTimeout reports that a substrate call exceeded the configured bound.
	ErrTimeout = errors.New("substrate timeout")
)

// InvalidArgumentError is a pre-I/O validation failure naming the offending field.
type InvalidArgumentError struct {
	Field   string
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Message)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalidArg(field, format string, args ...any) error {
	return &InvalidArgumentError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Stage identifies where chat resolution failed.
type Stage string

const (
	StageCreate Stage = "create"
	StageLookup Stage = "lookup"
)

// NotFoundError reports that chat resolution could not produce or locate a usable entity.
type NotFoundError struct {
	Stage   Stage
	Address string
}

func (e *NotFoundError) Error() string {
	switch e.Stage {
	case StageCreate:
		return fmt.Sprintf("failed to find or create chat for %s", e.Address)
	case StageLookup:
		return fmt.Sprintf("chat not found in live chat cache for %s", e.Address)
	default:
		return fmt.Sprintf("chat not found for %s", e.Address)
	}
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Outcome is the normalized result kind shared by every operation.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeCanceled
	OutcomeInvalidInput
	OutcomeSubstrateFailure
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeInvalidInput:
		return "invalid_input"
	case OutcomeSubstrateFailure:
		return "substrate_failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Classify maps an error returned by this package to its Outcome. A caller's
// own cancellation is OutcomeCanceled; any other foreign error is a substrate
// failure.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, wid.ErrInvalidAddress):
		return OutcomeInvalidInput
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAnchorNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrCanceled), errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeSubstrateFailure
	}
}
