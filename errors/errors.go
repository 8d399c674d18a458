// Package errors provides error types and handling for OSS operations.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/smithy-go"
)

// Error represents an OSS operation error with context about the operation that failed.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "presign", "abortMultipartUpload")
	Op string

	// Bucket is the OSS bucket name (if applicable)
	Bucket string

	// Key is the OSS object key (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("oss.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("oss.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("oss.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("oss.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for common OSS operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("oss: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("oss: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("oss: invalid object key")

	// ErrInvalidRegion indicates that the region identifier is invalid
	ErrInvalidRegion = errors.New("oss: invalid region")

	// ErrInvalidPartSize indicates that a non-final part would be below the minimum size
	ErrInvalidPartSize = errors.New("oss: invalid part size")

	// ErrInvalidCredentials indicates that credential material is empty or malformed
	ErrInvalidCredentials = errors.New("oss: invalid credentials")

	// ErrClockSkew indicates that the signing timestamp cannot be canonicalized
	ErrClockSkew = errors.New("oss: clock skew")

	// ErrAlreadyFinalized indicates that a multipart session was already completed or aborted
	ErrAlreadyFinalized = errors.New("oss: upload already finalized")

	// ErrChecksumMismatch indicates that the local and service CRC64 values differ
	ErrChecksumMismatch = errors.New("oss: checksum mismatch")

	// ErrTransferAborted indicates that a multipart session was aborted
	ErrTransferAborted = errors.New("oss: transfer aborted")

	// ErrRetryExhausted indicates that all retry attempts failed
	ErrRetryExhausted = errors.New("oss: retries exhausted")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("oss: access denied")

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("oss: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("oss: bucket not found")

	// ErrNoSuchUpload indicates that the multipart upload id is unknown to the service
	ErrNoSuchUpload = errors.New("oss: no such upload")

	// ErrTooManyRequests indicates that the request rate is too high
	ErrTooManyRequests = errors.New("oss: too many requests")
)

// AuthReason identifies why signing refused to proceed.
type AuthReason int

const (
	// AuthInvalidCredentials means the access key id or secret is empty or malformed.
	AuthInvalidCredentials AuthReason = iota + 1

	// AuthClockSkew means the signing timestamp could not be canonicalized.
	AuthClockSkew
)

// String returns the reason name.
func (r AuthReason) String() string {
	switch r {
	case AuthInvalidCredentials:
		return "invalid credentials"
	case AuthClockSkew:
		return "clock skew"
	default:
		return "unknown"
	}
}

// AuthError is returned by the signer. It is never retried.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oss: auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("oss: auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches ErrInvalidCredentials or ErrClockSkew according to Reason.
func (e *AuthError) Is(target error) bool {
	switch e.Reason {
	case AuthInvalidCredentials:
		return target == ErrInvalidCredentials
	case AuthClockSkew:
		return target == ErrClockSkew
	}
	return false
}

// NewAuthError creates an AuthError with an explanatory message.
func NewAuthError(reason AuthReason, msg string) *AuthError {
	return &AuthError{Reason: reason, Err: errors.New(msg)}
}

// TransportError wraps a failure to obtain any HTTP response: timeouts,
// connection resets and name resolution failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oss: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying error is a timeout.
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// ServiceError is a non-2xx response from the service. It implements
// smithy.APIError so callers already handling AWS SDK errors can reuse
// their classification code.
type ServiceError struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	RequestID  string
	HostID     string
}

var _ smithy.APIError = (*ServiceError)(nil)

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("oss: service error: status %d, code %s", e.StatusCode, e.Code)
	if e.Message != "" {
		msg += ", message: " + e.Message
	}
	if e.RequestID != "" {
		msg += ", request id: " + e.RequestID
	}
	return msg
}

// ErrorCode returns the service error code.
func (e *ServiceError) ErrorCode() string { return string(e.Code) }

// ErrorMessage returns the service error message.
func (e *ServiceError) ErrorMessage() string { return e.Message }

// ErrorFault attributes 5xx responses to the server and everything else to the client.
func (e *ServiceError) ErrorFault() smithy.ErrorFault {
	if e.StatusCode >= http.StatusInternalServerError {
		return smithy.FaultServer
	}
	return smithy.FaultClient
}

// Is maps well-known service codes onto sentinel errors.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrAccessDenied:
		return e.Code == CodeAccessDenied || e.StatusCode == http.StatusForbidden
	case ErrObjectNotFound:
		return e.Code == CodeNoSuchKey
	case ErrBucketNotFound:
		return e.Code == CodeNoSuchBucket
	case ErrNoSuchUpload:
		return e.Code == CodeNoSuchUpload
	case ErrTooManyRequests:
		return e.StatusCode == http.StatusTooManyRequests || e.Code == CodeTooManyRequests || e.Code == CodeThrottling
	}
	return false
}

// RetryExhaustedError is returned when every permitted attempt failed with a
// retryable error.
type RetryExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("oss: retries exhausted after %d attempts (%s): %v", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// Is matches ErrRetryExhausted.
func (e *RetryExhaustedError) Is(target error) bool { return target == ErrRetryExhausted }

// ChecksumMismatchError reports a CRC64 disagreement between the locally
// computed value and the one reported by the service. PartNumber is zero for
// whole-object checks.
type ChecksumMismatchError struct {
	Local      uint64
	Remote     uint64
	PartNumber int32
}

func (e *ChecksumMismatchError) Error() string {
	if e.PartNumber > 0 {
		return fmt.Sprintf("oss: checksum mismatch on part %d: local %d, service %d", e.PartNumber, e.Local, e.Remote)
	}
	return fmt.Sprintf("oss: checksum mismatch: local %d, service %d", e.Local, e.Remote)
}

// Is matches ErrChecksumMismatch.
func (e *ChecksumMismatchError) Is(target error) bool { return target == ErrChecksumMismatch }

// TransferAbortedError is the terminal error of a multipart session that was
// aborted after a part failed or the caller cancelled.
type TransferAbortedError struct {
	Reason     string
	PartNumber int32
	Err        error
}

func (e *TransferAbortedError) Error() string {
	if e.PartNumber > 0 {
		return fmt.Sprintf("oss: transfer aborted: %s (part %d): %v", e.Reason, e.PartNumber, e.Err)
	}
	return fmt.Sprintf("oss: transfer aborted: %s: %v", e.Reason, e.Err)
}

func (e *TransferAbortedError) Unwrap() error { return e.Err }

// Is matches ErrTransferAborted.
func (e *TransferAbortedError) Is(target error) bool { return target == ErrTransferAborted }

// InvalidPartSizeError is returned when a requested part size would produce a
// non-final part smaller than the service minimum.
type InvalidPartSizeError struct {
	PartSize int64
	MinSize  int64
}

func (e *InvalidPartSizeError) Error() string {
	return fmt.Sprintf("oss: invalid part size %d: non-final parts must be at least %d bytes", e.PartSize, e.MinSize)
}

// Is matches ErrInvalidPartSize and ErrInvalidInput.
func (e *InvalidPartSizeError) Is(target error) bool {
	return target == ErrInvalidPartSize || target == ErrInvalidInput
}

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
