// Package ossapi defines the OSS operations used by this module and their
// HTTP implementation.
//
// Every call is a single attempt: it builds the request, signs it with a
// fresh timestamp, sends it and classifies the response. Retrying is the
// caller's concern.
package ossapi

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/osstypes"
)

// API defines the interface for OSS operations used by this module.
// This interface allows for mocking in tests.
type API interface {
	// PutObject uploads an object in a single request
	PutObject(ctx context.Context, in *PutObjectInput) (*PutObjectOutput, error)

	// InitiateMultipartUpload starts a multipart upload and returns its id
	InitiateMultipartUpload(ctx context.Context, in *InitiateMultipartUploadInput) (*InitiateMultipartUploadOutput, error)

	// UploadPart uploads one part of a multipart upload
	UploadPart(ctx context.Context, in *UploadPartInput) (*UploadPartOutput, error)

	// CompleteMultipartUpload assembles the uploaded parts into the object
	CompleteMultipartUpload(ctx context.Context, in *CompleteMultipartUploadInput) (*CompleteMultipartUploadOutput, error)

	// AbortMultipartUpload discards a multipart upload and its parts
	AbortMultipartUpload(ctx context.Context, in *AbortMultipartUploadInput) (*AbortMultipartUploadOutput, error)
}

// ObjectHeaders are the optional headers shared by PutObject and
// InitiateMultipartUpload.
type ObjectHeaders struct {
	ContentType  string
	StorageClass osstypes.StorageClass
	ACL          osstypes.ObjectACL
	Metadata     map[string]string
}

// PutObjectInput is the input of PutObject.
type PutObjectInput struct {
	Bucket string
	Key    string
	Body   []byte
	ObjectHeaders
}

// PutObjectOutput is the output of PutObject.
type PutObjectOutput struct {
	ETag string

	// CRC64 is the service computed checksum, nil when the header is absent.
	CRC64     *uint64
	RequestID string
}

// InitiateMultipartUploadInput is the input of InitiateMultipartUpload.
type InitiateMultipartUploadInput struct {
	Bucket string
	Key    string
	ObjectHeaders
}

// InitiateMultipartUploadOutput is the output of InitiateMultipartUpload.
type InitiateMultipartUploadOutput struct {
	Bucket    string
	Key       string
	UploadID  string
	RequestID string
}

// UploadPartInput is the input of UploadPart.
type UploadPartInput struct {
	Bucket     string
	Key        string
	UploadID   string
	PartNumber int32
	Body       []byte
}

// UploadPartOutput is the output of UploadPart.
type UploadPartOutput struct {
	ETag      string
	CRC64     *uint64
	RequestID string
}

// CompletedPart identifies an uploaded part in CompleteMultipartUpload.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// CompleteMultipartUploadInput is the input of CompleteMultipartUpload.
// Parts must be sorted by PartNumber.
type CompleteMultipartUploadInput struct {
	Bucket   string
	Key      string
	UploadID string
	Parts    []CompletedPart
}

// CompleteMultipartUploadOutput is the output of CompleteMultipartUpload.
type CompleteMultipartUploadOutput struct {
	Location  string
	Bucket    string
	Key       string
	ETag      string
	CRC64     *uint64
	RequestID string
}

// AbortMultipartUploadInput is the input of AbortMultipartUpload.
type AbortMultipartUploadInput struct {
	Bucket   string
	Key      string
	UploadID string
}

// AbortMultipartUploadOutput is the output of AbortMultipartUpload.
type AbortMultipartUploadOutput struct {
	RequestID string
}
