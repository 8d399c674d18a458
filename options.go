package oss

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/credentials"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/osstypes"
)

// WithRegion sets the OSS region, e.g. "cn-hangzhou". It is required and is
// part of every signature.
func WithRegion(region string) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom endpoint host, optionally with a scheme. The
// bucket is not prepended to a custom endpoint.
func WithEndpoint(endpoint string) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithForcePathStyle puts the bucket in the path instead of the host.
// Default is false (uses virtual-hosted style).
func WithForcePathStyle(forcePathStyle bool) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithDisableSSL switches to plain http.
// Only use this for local testing.
func WithDisableSSL(disableSSL bool) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.DisableSSL = disableSSL
	}
}

// WithCredentials sets the credentials provider. The provider is wrapped in an
// aws.CredentialsCache unless it already is one.
func WithCredentials(provider aws.CredentialsProvider) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Credentials = provider
	}
}

// WithStaticCredentials uses a fixed access key. token may be empty.
func WithStaticCredentials(accessKeyID, accessKeySecret, token string) osstypes.Option {
	return WithCredentials(credentials.NewStaticProvider(accessKeyID, accessKeySecret, token))
}

// WithMaxRetries sets the maximum number of retry attempts for failed operations.
// Default is 3 retries. Set to 0 to disable retries.
func WithMaxRetries(maxRetries int) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithRetryDelays sets the backoff base and cap. Each delay is drawn
// uniformly from [0, min(maxDelay, base*2^(attempt-1))].
func WithRetryDelays(base, maxDelay time.Duration) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		if base > 0 {
			c.RetryBaseDelay = base
		}
		if maxDelay > 0 {
			c.RetryMaxDelay = maxDelay
		}
	}
}

// WithTimeout sets the timeout for individual HTTP requests.
// Default is no timeout (0). Ignored when WithHTTPClient is used.
func WithTimeout(timeout time.Duration) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithConcurrency sets the number of parts uploaded in parallel.
// Default is 8.
func WithConcurrency(concurrency int) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithPartSize sets the part size for multipart uploads.
// Default is 8MB. Every part but the last must be at least 100KB.
func WithPartSize(partSize int64) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithMultipartThreshold sets the size above which uploads use multipart.
// Default is 8MB.
func WithMultipartThreshold(threshold int64) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		if threshold > 0 {
			c.MultipartThreshold = threshold
		}
	}
}

// WithHTTPClient allows providing a custom HTTP client.
// This gives full control over HTTP behavior including timeouts, proxies, etc.
func WithHTTPClient(client aws.HTTPClient) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithLogger sets the structured logger. Default discards all records.
func WithLogger(logger *slog.Logger) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithFilesystem sets a custom filesystem implementation for file operations.
// This allows using in-memory filesystems for testing or virtual filesystems.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem billy.Filesystem) osstypes.Option {
	return func(c *osstypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithContentType sets the content type for upload operations.
func WithContentType(contentType string) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets metadata for upload operations.
func WithMetadata(metadata map[string]string) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithStorageClass sets the storage class for upload operations.
func WithStorageClass(storageClass osstypes.StorageClass) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		c.StorageClass = storageClass
	}
}

// WithACL sets the object ACL for upload operations.
func WithACL(acl osstypes.ObjectACL) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		c.ACL = acl
	}
}

// WithProgress sets a progress tracker for upload operations.
func WithProgress(tracker osstypes.ProgressTracker) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithUploadPartSize sets the part size for multipart uploads in upload operations.
// This overrides the client-level default for this specific upload.
func WithUploadPartSize(partSize int64) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithUploadConcurrency sets the concurrency level for multipart uploads in upload operations.
// This overrides the client-level default for this specific upload.
func WithUploadConcurrency(concurrency int) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithSize declares the payload size so the reader is neither measured nor
// buffered.
func WithSize(size int64) osstypes.UploadOption {
	return func(c *osstypes.UploadOptionConfig) {
		c.Size = size
	}
}

// WithExpires sets how long a presigned URL stays valid.
// Default is one hour, the maximum is seven days.
func WithExpires(expires time.Duration) osstypes.PresignOption {
	return func(c *osstypes.PresignOptionConfig) {
		c.Expires = expires
	}
}

// WithPresignContentType signs the Content-Type header into a presigned URL.
// The request made with the URL must send the same value.
func WithPresignContentType(contentType string) osstypes.PresignOption {
	return func(c *osstypes.PresignOptionConfig) {
		c.ContentType = contentType
	}
}
