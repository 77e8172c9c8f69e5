package receipt

import (
	"errors"
	"fmt"
)

// Common receipt pipeline errors
var (
	// ErrPaymentNotFound is returned when a payment id referenced by the
	// caller does not exist in the store.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrReceiptNotFound is returned when a receipt id referenced by the
	// caller does not exist in the store.
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrTemplateNotFound is returned when the receipt HTML template is
	// missing or unreadable.
	ErrTemplateNotFound = errors.New("receipt template not found")

	// ErrPDFGeneration is returned when HTML to PDF rendering fails or
	// produces an empty file.
	ErrPDFGeneration = errors.New("pdf generation failed")
)

// PipelineError wraps errors with the pipeline operation that failed.
type PipelineError struct {
	// Op is the operation that failed (e.g. "Generate", "SendAndArchive").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("receipt: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("receipt: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func wrapOp(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return err
	}
	return &PipelineError{Op: op, Err: err, Details: details}
}
