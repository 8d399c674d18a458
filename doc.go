// Package oss provides a high-level Go client for Alibaba Cloud Object
// Storage Service (OSS).
//
// Every request is signed with OSS V4 (OSS4-HMAC-SHA256), retried with
// full-jitter exponential backoff when the failure is transient, and checked
// end to end with CRC64-ECMA. Large payloads are split into parts that are
// uploaded concurrently; a failed or cancelled multipart upload is aborted at
// the service before control returns to the caller.
//
// Key features:
//   - Credentials from the ALIBABA_CLOUD_* environment or any aws.CredentialsProvider
//   - Progressive enhancement through functional options
//   - Automatic multipart upload above a size threshold
//   - Bounded part concurrency with serialized progress reporting
//   - Presigned GET and PUT URLs
//   - Typed errors that work with errors.Is and errors.As
//
// Example usage:
//
//	client, err := oss.New(oss.WithRegion("cn-hangzhou"))
//	if err != nil {
//	    return err
//	}
//
//	// Upload a file
//	result, err := client.UploadFile(ctx, "my-bucket", "path/file.txt", "/local/file.txt")
//	if err != nil {
//	    return err
//	}
package oss
