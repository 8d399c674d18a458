package errors

import (
	"context"
	"errors"
	"net/http"

	awsretry "github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/smithy-go"
)

// Class is the retry classification of a failure.
type Class int

const (
	// NonRetryable failures are surfaced immediately.
	NonRetryable Class = iota

	// Retryable failures may succeed if the same request is sent again.
	Retryable
)

// String returns the class name.
func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "non-retryable"
}

// connErrRetryable recognizes raw dial, reset and timeout errors.
var connErrRetryable = awsretry.RetryableConnectionError{}

// Classify maps an error onto the closed retry classification.
//
// Signing failures, checksum mismatches, terminal transfer states and caller
// cancellation are never retried. Transport failures are. Service errors are
// retried for 5xx, 429 and the throttling/availability codes.
func Classify(err error) Class {
	if err == nil {
		return NonRetryable
	}
	if errors.Is(err, context.Canceled) {
		return NonRetryable
	}

	var (
		authErr      *AuthError
		checksumErr  *ChecksumMismatchError
		exhaustedErr *RetryExhaustedError
		abortedErr   *TransferAbortedError
		partSizeErr  *InvalidPartSizeError
	)
	switch {
	case errors.As(err, &authErr),
		errors.As(err, &checksumErr),
		errors.As(err, &exhaustedErr),
		errors.As(err, &abortedErr),
		errors.As(err, &partSizeErr):
		return NonRetryable
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return Retryable
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return classifyStatus(svcErr.StatusCode, svcErr.Code)
	}

	// Errors coming from other smithy-based clients carry a code and a fault.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := retryableCodes[ErrorCode(apiErr.ErrorCode())]; ok {
			return Retryable
		}
		if apiErr.ErrorFault() == smithy.FaultServer {
			return Retryable
		}
		return NonRetryable
	}

	// Raw network errors that were not wrapped by the transport.
	if connErrRetryable.IsErrorRetryable(err).Bool() {
		return Retryable
	}

	return NonRetryable
}

// IsRetryable reports whether Classify returns Retryable.
func IsRetryable(err error) bool {
	return Classify(err) == Retryable
}

func classifyStatus(status int, code ErrorCode) Class {
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return Retryable
	}
	if _, ok := retryableCodes[code]; ok {
		return Retryable
	}
	return NonRetryable
}
