// Package testutil provides test utilities and mocks for OSS operations.
// This package is internal and should only be used for testing within the OSS module.
package testutil

import (
	"context"
	"sync/atomic"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/crc64"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/ossapi"
)

// MockOSSAPI is a mock implementation of the ossapi.API interface for testing.
// It allows customization of each operation through function fields and
// counts every call.
type MockOSSAPI struct {
	PutObjectFunc               func(context.Context, *ossapi.PutObjectInput) (*ossapi.PutObjectOutput, error)
	InitiateMultipartUploadFunc func(context.Context, *ossapi.InitiateMultipartUploadInput) (*ossapi.InitiateMultipartUploadOutput, error)
	UploadPartFunc              func(context.Context, *ossapi.UploadPartInput) (*ossapi.UploadPartOutput, error)
	CompleteMultipartUploadFunc func(context.Context, *ossapi.CompleteMultipartUploadInput) (*ossapi.CompleteMultipartUploadOutput, error)
	AbortMultipartUploadFunc    func(context.Context, *ossapi.AbortMultipartUploadInput) (*ossapi.AbortMultipartUploadOutput, error)

	PutObjectCalls  atomic.Int32
	InitiateCalls   atomic.Int32
	UploadPartCalls atomic.Int32
	CompleteCalls   atomic.Int32
	AbortCalls      atomic.Int32
}

var _ ossapi.API = (*MockOSSAPI)(nil)

// PutObject mocks the PutObject operation. By default it echoes the body
// checksum.
func (m *MockOSSAPI) PutObject(ctx context.Context, in *ossapi.PutObjectInput) (*ossapi.PutObjectOutput, error) {
	m.PutObjectCalls.Add(1)
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, in)
	}
	crc := crc64.Checksum(in.Body)
	return &ossapi.PutObjectOutput{ETag: "mock-etag", CRC64: &crc}, nil
}

// InitiateMultipartUpload mocks the InitiateMultipartUpload operation.
func (m *MockOSSAPI) InitiateMultipartUpload(
	ctx context.Context,
	in *ossapi.InitiateMultipartUploadInput,
) (*ossapi.InitiateMultipartUploadOutput, error) {
	m.InitiateCalls.Add(1)
	if m.InitiateMultipartUploadFunc != nil {
		return m.InitiateMultipartUploadFunc(ctx, in)
	}
	return &ossapi.InitiateMultipartUploadOutput{Bucket: in.Bucket, Key: in.Key, UploadID: "mock-upload-id"}, nil
}

// UploadPart mocks the UploadPart operation. By default it echoes the part
// checksum.
func (m *MockOSSAPI) UploadPart(ctx context.Context, in *ossapi.UploadPartInput) (*ossapi.UploadPartOutput, error) {
	m.UploadPartCalls.Add(1)
	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, in)
	}
	crc := crc64.Checksum(in.Body)
	return &ossapi.UploadPartOutput{ETag: PartETag(in.PartNumber), CRC64: &crc}, nil
}

// CompleteMultipartUpload mocks the CompleteMultipartUpload operation.
func (m *MockOSSAPI) CompleteMultipartUpload(
	ctx context.Context,
	in *ossapi.CompleteMultipartUploadInput,
) (*ossapi.CompleteMultipartUploadOutput, error) {
	m.CompleteCalls.Add(1)
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, in)
	}
	return &ossapi.CompleteMultipartUploadOutput{Bucket: in.Bucket, Key: in.Key, ETag: "mock-etag"}, nil
}

// AbortMultipartUpload mocks the AbortMultipartUpload operation.
func (m *MockOSSAPI) AbortMultipartUpload(
	ctx context.Context,
	in *ossapi.AbortMultipartUploadInput,
) (*ossapi.AbortMultipartUploadOutput, error) {
	m.AbortCalls.Add(1)
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, in)
	}
	return &ossapi.AbortMultipartUploadOutput{}, nil
}
