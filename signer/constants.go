package signer

import "time"

// OSS V4 signature constants.
const (
	// Algorithm is the OSS V4 signing algorithm identifier.
	Algorithm = "OSS4-HMAC-SHA256"

	// ServiceName is the service component of the credential scope.
	ServiceName = "oss"

	// ScopeTerminator ends every credential scope.
	ScopeTerminator = "aliyun_v4_request"

	// SecretPrefix is prepended to the access key secret to seed key derivation.
	SecretPrefix = "aliyun_v4"

	// UnsignedPayload is used as the payload hash for streaming and presigned requests.
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// EmptyPayloadHash is the hex encoded SHA-256 of an empty body.
	EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// AuthorizationHeader is the HTTP header name for authorization.
	AuthorizationHeader = "Authorization"

	// DateKey is the header/query key for the request timestamp.
	DateKey = "x-oss-date"

	// ContentSHAKey is the header key for the request body hash.
	ContentSHAKey = "x-oss-content-sha256"

	// SecurityTokenKey is the header/query key for the STS session token.
	SecurityTokenKey = "x-oss-security-token"

	// CredentialKey is the presign query key carrying the credential.
	CredentialKey = "x-oss-credential"

	// ExpiresKey is the presign query key carrying the validity in seconds.
	ExpiresKey = "x-oss-expires"

	// SignatureVersionKey is the presign query key carrying the algorithm.
	SignatureVersionKey = "x-oss-signature-version"

	// SignedHeadersKey is the presign query key carrying the signed header names.
	SignedHeadersKey = "x-oss-signed-headers"

	// SignatureKey is the presign query key carrying the signature.
	SignatureKey = "x-oss-signature"

	// HostHeader is the canonical name used when the host is signed.
	HostHeader = "host"

	// TimeFormat is the format of x-oss-date. Format: YYYYMMDDTHHMMSSZ
	TimeFormat = "20060102T150405Z"

	// ShortTimeFormat is the date format used in the credential scope. Format: YYYYMMDD
	ShortTimeFormat = "20060102"

	// DefaultPresignExpiry is used by callers that do not pick an expiry.
	DefaultPresignExpiry = time.Hour

	// MaxPresignExpiry is the longest validity the service accepts.
	MaxPresignExpiry = 7 * 24 * time.Hour
)
