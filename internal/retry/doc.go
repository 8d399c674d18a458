// Package retry drives idempotent OSS operations through bounded attempts
// with full-jitter exponential backoff.
//
// Retryer implements aws.Retryer so it can be shared with code written
// against the AWS SDK. Do is the driver: it re-invokes the operation, which
// must build and sign a fresh request on every call, until it succeeds, fails
// with a non-retryable error, runs out of attempts or the context ends.
package retry
