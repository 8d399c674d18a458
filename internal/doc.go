// Package internal contains private implementation details for the OSS module.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - crc64: CRC64-ECMA computation and combination
//   - retry: Backoff policy and the retry driver
//   - ossapi: Wire codec and the single-attempt request executor
//   - operations: Upload entry points (simple or multipart)
//   - transfer: Multipart session orchestration
//   - validation: Input validation logic
//   - pool: Part buffer reuse
package internal
