package errors

// ErrorCode is the error code string returned by the OSS service in the
// <Code> element of an error response body.
type ErrorCode string

const (
	// Permission errors.

	// CodeAccessDenied indicates the credentials lack permission for the request.
	CodeAccessDenied ErrorCode = "AccessDenied"

	// CodeInvalidAccessKeyID indicates the access key id is unknown to the service.
	CodeInvalidAccessKeyID ErrorCode = "InvalidAccessKeyId"

	// CodeSignatureDoesNotMatch indicates the computed signature was rejected.
	CodeSignatureDoesNotMatch ErrorCode = "SignatureDoesNotMatch"

	// CodeRequestTimeTooSkewed indicates the signing time is too far from server time.
	CodeRequestTimeTooSkewed ErrorCode = "RequestTimeTooSkewed"

	// CodeSecurityTokenExpired indicates the session token has expired.
	CodeSecurityTokenExpired ErrorCode = "SecurityTokenExpired"

	// Resource errors.

	// CodeNoSuchBucket indicates the bucket does not exist.
	CodeNoSuchBucket ErrorCode = "NoSuchBucket"

	// CodeNoSuchKey indicates the object does not exist.
	CodeNoSuchKey ErrorCode = "NoSuchKey"

	// CodeNoSuchUpload indicates the multipart upload id is unknown, completed or aborted.
	CodeNoSuchUpload ErrorCode = "NoSuchUpload"

	// Multipart errors.

	// CodeInvalidPart indicates a listed part was not uploaded or its ETag does not match.
	CodeInvalidPart ErrorCode = "InvalidPart"

	// CodeInvalidPartOrder indicates the part list was not in ascending order.
	CodeInvalidPartOrder ErrorCode = "InvalidPartOrder"

	// CodeEntityTooSmall indicates a non-final part is below the minimum part size.
	CodeEntityTooSmall ErrorCode = "EntityTooSmall"

	// CodeInvalidDigest indicates the body checksum did not match the supplied digest.
	CodeInvalidDigest ErrorCode = "InvalidDigest"

	// Availability errors.

	// CodeInternalError indicates an internal service failure.
	CodeInternalError ErrorCode = "InternalError"

	// CodeServiceUnavailable indicates the service is temporarily unavailable.
	CodeServiceUnavailable ErrorCode = "ServiceUnavailable"

	// CodeThrottling indicates the request was throttled.
	CodeThrottling ErrorCode = "Throttling"

	// CodeTooManyRequests indicates the request rate limit was exceeded.
	CodeTooManyRequests ErrorCode = "TooManyRequests"

	// CodeRequestTimeout indicates the service timed out reading the request.
	CodeRequestTimeout ErrorCode = "RequestTimeout"

	// Generic errors.

	// CodeUnknown is used when the response body carried no parsable code.
	CodeUnknown ErrorCode = "Unknown"
)

// retryableCodes lists the service codes that are treated as transient even
// when the HTTP status alone would not be.
var retryableCodes = map[ErrorCode]struct{}{
	CodeInternalError:      {},
	CodeServiceUnavailable: {},
	CodeThrottling:         {},
	CodeTooManyRequests:    {},
	CodeRequestTimeout:     {},
}
