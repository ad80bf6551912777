package errors

import (
	"context"
	goerrors "errors"
)

// CheckContext returns an error if the context is canceled or timed out.
// This provides a standardized way to check and wrap context errors.
func CheckContext(ctx context.Context, operation string) error {
	if err := ctx.Err(); err != nil {
		return Wrap(err, Canceled, operation+" canceled")
	}
	return nil
}

// CodeOf extracts the ErrorCode from an error, returning Unknown for
// errors that are not *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if goerrors.As(err, &e) {
		return e.Code()
	}
	return Unknown
}
