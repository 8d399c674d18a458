// Package osstypes provides shared type definitions for the OSS module.
package osstypes

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
)

// StorageClass represents the OSS storage class for objects.
type StorageClass string

// Predefined OSS storage classes
const (
	// StorageClassStandard is the default storage class
	StorageClassStandard StorageClass = "Standard"

	// StorageClassIA provides infrequent access storage
	StorageClassIA StorageClass = "IA"

	// StorageClassArchive provides archival storage
	StorageClassArchive StorageClass = "Archive"

	// StorageClassColdArchive provides cold archival storage
	StorageClassColdArchive StorageClass = "ColdArchive"

	// StorageClassDeepColdArchive provides deep cold archival storage
	StorageClassDeepColdArchive StorageClass = "DeepColdArchive"
)

// ObjectACL represents the access control list for OSS objects.
type ObjectACL string

// Predefined object ACLs
const (
	// ACLDefault inherits the bucket ACL
	ACLDefault ObjectACL = "default"

	// ACLPrivate grants private access
	ACLPrivate ObjectACL = "private"

	// ACLPublicRead grants public read access
	ACLPublicRead ObjectACL = "public-read"

	// ACLPublicReadWrite grants public read and write access
	ACLPublicReadWrite ObjectACL = "public-read-write"
)

// ProgressTracker defines the interface for tracking transfer progress.
//
// During a multipart upload Update is called once per completed part. Calls
// are serialized and bytesTransferred never decreases.
type ProgressTracker interface {
	// Update is called with the aggregate bytes acknowledged so far
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// PartOutcome records one acknowledged part of a multipart upload.
type PartOutcome struct {
	// PartNumber is the 1-based part index
	PartNumber int32

	// ETag is the entity tag returned by the service for the part
	ETag string

	// Size is the part length in bytes
	Size int64

	// CRC64 is the locally computed CRC-64/ECMA of the part
	CRC64 uint64
}

// UploadConfig holds the resolved configuration for one upload.
type UploadConfig struct {
	ContentType     string
	Metadata        map[string]string
	StorageClass    StorageClass
	ACL             ObjectACL
	ProgressTracker ProgressTracker
	PartSize        int64
	Concurrency     int
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Key is the OSS object key that was uploaded
	Key string

	// ETag is the entity tag of the object
	ETag string

	// CRC64 is the CRC-64/ECMA of the whole object
	CRC64 uint64

	// Size is the size of the uploaded object in bytes
	Size int64

	// Parts is the number of parts, 1 for a simple upload
	Parts int

	// Multipart reports whether the multipart protocol was used
	Multipart bool

	// UploadID is the multipart upload id, empty for a simple upload
	UploadID string

	// RequestID is the service request id of the final call
	RequestID string

	// Duration is how long the upload took
	Duration time.Duration
}

// Configuration types for functional options

// ClientConfig holds configuration for the OSS client.
type ClientConfig struct {
	Region             string
	Endpoint           string
	ForcePathStyle     bool
	DisableSSL         bool
	Credentials        aws.CredentialsProvider
	MaxRetries         int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	Timeout            time.Duration
	Concurrency        int
	PartSize           int64
	MultipartThreshold int64
	HTTPClient         aws.HTTPClient
	Logger             *slog.Logger
	Filesystem         billy.Filesystem
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	ContentType     string
	Metadata        map[string]string
	StorageClass    StorageClass
	ACL             ObjectACL
	ProgressTracker ProgressTracker
	PartSize        int64
	Concurrency     int

	// Size is the source length, or -1 when it must be discovered.
	Size int64
}

// PresignOptionConfig holds configuration for presigned URLs.
type PresignOptionConfig struct {
	Expires     time.Duration
	ContentType string
}

// Option is a functional option for configuring the OSS client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// PresignOption is a functional option for configuring presigned URLs.
	PresignOption func(*PresignOptionConfig)
)
