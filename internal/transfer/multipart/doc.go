// Package multipart drives OSS multipart uploads.
//
// Partition splits a payload into numbered parts. A Session tracks one upload
// id from initiation until it is completed or aborted; the two terminal states
// are mutually exclusive. Uploader runs a whole session: it reads parts from
// the source, uploads them with bounded concurrency, verifies CRC64 values
// and completes the upload, or aborts it exactly once when a part fails or
// the caller cancels.
package multipart
