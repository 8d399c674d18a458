package oss

import (
	"bytes"
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	osserrors "github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/ossapi"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/osstypes"
)

const (
	// DefaultContentType is the default content type used when content type detection fails
	DefaultContentType = "application/octet-stream"
)

// MultipartUpload is a multipart upload driven part by part by the caller.
// It is returned by CreateMultipartUpload.
type MultipartUpload = multipart.Session

// Upload uploads data from an io.Reader to OSS.
// It automatically detects when to use multipart upload based on the
// multipart threshold (8MB by default).
//
// The size is taken from WithSize, a Len or Size method of the reader, or by
// seeking an io.Seeker; otherwise the reader is buffered in memory first.
// Without WithContentType the content type is sniffed from the first bytes,
// falling back to the key's extension.
//
// Returns:
//   - *UploadResult: Contains the uploaded object's ETag, CRC64 and duration
//   - error: Returns an error if the upload fails
//
// Errors:
//   - ErrInvalidBucketName, ErrInvalidObjectKey, ErrInvalidInput: If an argument is invalid
//   - ErrAccessDenied: If the credentials lack permission to upload
//   - ErrChecksumMismatch: If the service stored different bytes than were sent
//   - ErrTransferAborted: If a multipart upload failed and was aborted
//   - ErrRetryExhausted: If a transient failure persisted over every attempt
//
// Example:
//
//	file, err := os.Open("data.txt")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	result, err := client.Upload(ctx, "my-bucket", "data.txt", file,
//	    oss.WithContentType("text/plain"),
//	    oss.WithStorageClass(osstypes.StorageClassIA),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Uploaded %s in %v\n", result.Key, result.Duration)
func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	opts ...osstypes.UploadOption,
) (*osstypes.UploadResult, error) {
	if err := validateObject(bucket, key); err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, osserrors.NewObjectError("upload", bucket, key, osserrors.ErrInvalidInput).
			WithMessage("reader cannot be nil")
	}

	config := c.uploadConfig(opts)
	if config.Size < 0 {
		size, err := sizeOf(reader)
		if err != nil {
			return nil, osserrors.NewObjectError("upload", bucket, key, err)
		}
		config.Size = size
	}

	return c.upload(ctx, bucket, key, reader, key, config)
}

// UploadFile uploads a file from the client's filesystem to OSS.
// It automatically detects when to use multipart upload based on file size.
//
// Example:
//
//	result, err := client.UploadFile(ctx, "my-bucket", "docs/report.pdf", "/path/to/report.pdf",
//	    oss.WithProgress(progressTracker),
//	    oss.WithMetadata(map[string]string{"author": "ops"}),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Uploaded %d bytes in %v\n", result.Size, result.Duration)
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...osstypes.UploadOption,
) (*osstypes.UploadResult, error) {
	if err := validateObject(bucket, key); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, osserrors.NewObjectError("uploadFile", bucket, key, osserrors.ErrInvalidInput).
			WithMessage("filepath cannot be empty")
	}

	fs := c.filesystem()
	info, err := fs.Stat(path)
	if err != nil {
		return nil, osserrors.NewObjectError("uploadFile", bucket, key, err)
	}
	if info.IsDir() {
		return nil, osserrors.NewObjectError("uploadFile", bucket, key, osserrors.ErrInvalidInput).
			WithMessage("filepath points to a directory, not a file")
	}

	file, err := fs.Open(path)
	if err != nil {
		return nil, osserrors.NewObjectError("uploadFile", bucket, key, err)
	}
	defer file.Close()

	config := c.uploadConfig(opts)
	config.Size = info.Size()

	return c.upload(ctx, bucket, key, file, path, config)
}

// Put uploads byte data to OSS.
// This is a convenience method for data that is already in memory.
//
// Example:
//
//	data := []byte(`{"config": "value"}`)
//	err := client.Put(ctx, "my-bucket", "config.json", data,
//	    oss.WithContentType("application/json"),
//	    oss.WithACL(osstypes.ACLPrivate),
//	)
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...osstypes.UploadOption) error {
	if err := validateObject(bucket, key); err != nil {
		return err
	}

	config := c.uploadConfig(opts)
	config.Size = int64(len(data))

	_, err := c.upload(ctx, bucket, key, bytes.NewReader(data), key, config)
	return err
}

// CreateMultipartUpload starts a multipart upload whose parts the caller
// uploads. Parts are retried and CRC-checked like those of Upload; Complete
// and Abort are single attempts, and after either one the upload refuses
// further calls with ErrAlreadyFinalized.
//
// Example:
//
//	mu, err := client.CreateMultipartUpload(ctx, "my-bucket", "video.mp4")
//	if err != nil {
//	    return err
//	}
//	if _, err := mu.UploadPart(ctx, 1, chunk); err != nil {
//	    _ = mu.Abort(ctx)
//	    return err
//	}
//	result, err := mu.Complete(ctx)
func (c *Client) CreateMultipartUpload(
	ctx context.Context,
	bucket, key string,
	opts ...osstypes.UploadOption,
) (*MultipartUpload, error) {
	if err := validateObject(bucket, key); err != nil {
		return nil, err
	}

	config := c.uploadConfig(opts)
	if err := validation.ValidateObjectHeaders(config.ContentType, config.Metadata, config.ACL, config.StorageClass); err != nil {
		return nil, osserrors.NewObjectError("createMultipartUpload", bucket, key, err)
	}
	if config.ContentType == "" {
		config.ContentType = c.detectContentTypeFromExtension(key)
	}

	return multipart.Initiate(ctx, multipart.SessionConfig{
		API:     c.api,
		Retryer: c.retryer,
		Logger:  c.logger,
		Bucket:  bucket,
		Key:     key,
		Headers: ossapi.ObjectHeaders{
			ContentType:  config.ContentType,
			StorageClass: config.StorageClass,
			ACL:          config.ACL,
			Metadata:     config.Metadata,
		},
		Total:   config.Size,
		Tracker: config.ProgressTracker,
	})
}

func (c *Client) uploadConfig(opts []osstypes.UploadOption) *osstypes.UploadOptionConfig {
	config := &osstypes.UploadOptionConfig{
		PartSize:    c.config.PartSize,
		Concurrency: c.config.Concurrency,
		Size:        -1,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// upload sniffs the content type when needed and hands the payload to the
// uploader. name is used for extension based content type detection.
func (c *Client) upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	name string,
	config *osstypes.UploadOptionConfig,
) (*osstypes.UploadResult, error) {
	if err := validation.ValidateObjectHeaders(config.ContentType, config.Metadata, config.ACL, config.StorageClass); err != nil {
		return nil, osserrors.NewObjectError("upload", bucket, key, err)
	}

	if config.ContentType == "" {
		head := pool.GetSniffBuffer()
		defer pool.PutSniffBuffer(head)

		limit := int64(len(head))
		if config.Size >= 0 && config.Size < limit {
			limit = config.Size
		}
		n, err := io.ReadFull(reader, head[:limit])
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, osserrors.NewObjectError("upload", bucket, key, err)
		}
		config.ContentType = c.detectContentType(head[:n], name)
		reader = io.MultiReader(bytes.NewReader(head[:n]), reader)
	}

	return c.uploader.Upload(ctx, bucket, key, reader, config.Size, &osstypes.UploadConfig{
		ContentType:     config.ContentType,
		Metadata:        config.Metadata,
		StorageClass:    config.StorageClass,
		ACL:             config.ACL,
		ProgressTracker: config.ProgressTracker,
		PartSize:        config.PartSize,
		Concurrency:     config.Concurrency,
	})
}

// detectContentType sniffs head with mimetype, falling back to the extension
// of name when the content is not recognised.
func (c *Client) detectContentType(head []byte, name string) string {
	if len(head) > 0 {
		if mt := mimetype.Detect(head); mt != nil && mt.String() != DefaultContentType {
			return mt.String()
		}
	}
	return c.detectContentTypeFromExtension(name)
}

// detectContentTypeFromExtension detects content type from file extension
func (c *Client) detectContentTypeFromExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}

func validateObject(bucket, key string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return err
	}
	return validation.ValidateObjectKey(key)
}

// sizeOf returns the number of bytes left in reader, or -1 when it cannot
// tell without reading.
func sizeOf(reader io.Reader) (int64, error) {
	switch r := reader.(type) {
	case interface{ Len() int }:
		return int64(r.Len()), nil
	case io.Seeker:
		cur, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return -1, nil
		}
		end, err := r.Seek(0, io.SeekEnd)
		if err != nil {
			return -1, nil
		}
		if _, err := r.Seek(cur, io.SeekStart); err != nil {
			return 0, err
		}
		return end - cur, nil
	case interface{ Size() int64 }:
		return r.Size(), nil
	}
	return -1, nil
}
