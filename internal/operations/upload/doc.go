// Package upload handles OSS object upload operations.
// This includes simple uploads, multipart uploads, and stream-based uploads.
//
// The package automatically detects when to use multipart upload based on
// the configured size threshold and hands large payloads to the multipart
// orchestrator.
package upload
