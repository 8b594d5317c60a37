package scoreboard

import (
	"errors"
	"fmt"

	"github.com/roach88/mulcheck/internal/txn"
)

// ProtocolErrorCode categorizes harness-internal consistency failures.
type ProtocolErrorCode string

const (
	// ErrCodeQueueUnderflow: data_out_valid with no outstanding transaction.
	ErrCodeQueueUnderflow ProtocolErrorCode = "QUEUE_UNDERFLOW"

	// ErrCodeOperandMismatch: operands seen on the pins differ from the
	// transaction the driver says it is presenting.
	ErrCodeOperandMismatch ProtocolErrorCode = "OPERAND_MISMATCH"

	// ErrCodeNoInFlight: a completed beat pair with no transaction in flight.
	ErrCodeNoInFlight ProtocolErrorCode = "NO_INFLIGHT"
)

// ProtocolError is a harness bug, not a component bug. It aborts the run
// and is reported separately from a FAILED verdict.
type ProtocolError struct {
	Code    ProtocolErrorCode
	Message string

	// Declared is the driver's in-flight transaction, when known.
	Declared *txn.Transaction

	// Observed is what the pins showed.
	Observed string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Declared != nil {
		return fmt.Sprintf("%s: %s (declared %s, observed %s)", e.Code, e.Message, e.Declared, e.Observed)
	}
	if e.Observed != "" {
		return fmt.Sprintf("%s: %s (observed %s)", e.Code, e.Message, e.Observed)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsProtocolError reports whether err is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsUnderflow reports whether err is a queue-underflow ProtocolError.
func IsUnderflow(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeQueueUnderflow
	}
	return false
}

// NewUnderflowError creates a ProtocolError for a response with nothing
// outstanding.
func NewUnderflowError(observed txn.Response) *ProtocolError {
	return &ProtocolError{
		Code:     ErrCodeQueueUnderflow,
		Message:  "data_out_valid with no outstanding transaction",
		Observed: observed.String(),
	}
}

// NewOperandMismatchError creates a ProtocolError for pins that disagree
// with the driver.
func NewOperandMismatchError(declared, observed txn.Transaction) *ProtocolError {
	return &ProtocolError{
		Code:     ErrCodeOperandMismatch,
		Message:  "operands on the pins differ from the in-flight transaction",
		Declared: &declared,
		Observed: observed.String(),
	}
}

// NewNoInFlightError creates a ProtocolError for beats nobody dispatched.
func NewNoInFlightError(observed txn.Transaction) *ProtocolError {
	return &ProtocolError{
		Code:     ErrCodeNoInFlight,
		Message:  "operand beat pair with no transaction in flight",
		Observed: observed.String(),
	}
}
