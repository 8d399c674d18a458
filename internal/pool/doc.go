// Package pool provides memory management optimizations.
// Part buffers are reused across multipart uploads so that an upload holds
// at most (concurrency + 1) part-sized buffers at any time.
package pool
