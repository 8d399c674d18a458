// Package operations contains the core OSS operation implementations.
// These functions drive the low-level calls of internal/ossapi for
// object operations.
//
// Each operation is isolated into its own subpackage for better organization
// and testability.
package operations
