// Package transfer manages large OSS transfer operations.
// This includes multipart upload coordination, progress tracking,
// and concurrency management.
//
// The transfer package orchestrates high-level transfer operations and
// delegates the individual OSS calls to internal/ossapi.
package transfer
