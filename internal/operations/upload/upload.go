package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/crc64"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/ossapi"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/retry"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/osstypes"
)

// DefaultThreshold is the largest payload sent with a single PutObject.
const DefaultThreshold int64 = 8 * 1024 * 1024

// MaxSimpleSize is the largest object PutObject accepts.
const MaxSimpleSize int64 = 5 * 1024 * 1024 * 1024

// Config configures an Uploader.
type Config struct {
	// Threshold is the size above which multipart upload is used.
	Threshold int64

	// Concurrency is the default number of parts in flight.
	Concurrency int

	Logger *slog.Logger
}

// Uploader handles OSS upload operations with automatic multipart detection.
type Uploader struct {
	api       ossapi.API
	retryer   aws.Retryer
	logger    *slog.Logger
	threshold int64
	multipart *multipart.Uploader
}

// New creates a new Uploader instance.
func New(api ossapi.API, retryer aws.Retryer, cfg Config) *Uploader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if threshold > MaxSimpleSize {
		threshold = MaxSimpleSize
	}

	return &Uploader{
		api:       api,
		retryer:   retryer,
		logger:    logger,
		threshold: threshold,
		multipart: multipart.NewUploader(api, retryer,
			multipart.WithLogger(logger),
			multipart.WithConcurrency(cfg.Concurrency),
		),
	}
}

// Threshold returns the multipart threshold in bytes.
func (u *Uploader) Threshold() int64 {
	return u.threshold
}

// Upload uploads size bytes from reader. A negative size means the size is
// unknown and the reader is buffered in memory first.
//
// Payloads up to the threshold are sent with PutObject, larger ones with a
// multipart upload.
func (u *Uploader) Upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	size int64,
	config *osstypes.UploadConfig,
) (*osstypes.UploadResult, error) {
	if config == nil {
		config = &osstypes.UploadConfig{}
	}

	if size < 0 {
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, u.fail(config, errors.NewObjectError("upload", bucket, key, err))
		}
		size = int64(len(data))
		reader = bytes.NewReader(data)
	}

	if size > u.threshold {
		return u.multipart.Upload(ctx, bucket, key, reader, size, config)
	}

	data, err := readSized(reader, size)
	if err != nil {
		return nil, u.fail(config, errors.NewObjectError("upload", bucket, key, err))
	}
	return u.UploadSimple(ctx, bucket, key, data, config)
}

// UploadSimple performs a simple (non-multipart) OSS upload.
//
// The request is retried on transient failures. When the service reports a
// CRC64 that differs from the local one the upload fails with a
// *errors.ChecksumMismatchError and is not retried.
func (u *Uploader) UploadSimple(
	ctx context.Context,
	bucket, key string,
	data []byte,
	config *osstypes.UploadConfig,
) (*osstypes.UploadResult, error) {
	if config == nil {
		config = &osstypes.UploadConfig{}
	}
	startTime := time.Now()
	size := int64(len(data))
	if size > MaxSimpleSize {
		return nil, u.fail(config, errors.NewObjectError("putObject", bucket, key, errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("object of %d bytes exceeds the single request limit", size)))
	}

	local := crc64.Checksum(data)
	output, err := retry.Do(ctx, u.retryer,
		func(ctx context.Context, _ int) (*ossapi.PutObjectOutput, error) {
			out, err := u.api.PutObject(ctx, &ossapi.PutObjectInput{
				Bucket: bucket,
				Key:    key,
				Body:   data,
				ObjectHeaders: ossapi.ObjectHeaders{
					ContentType:  config.ContentType,
					StorageClass: config.StorageClass,
					ACL:          config.ACL,
					Metadata:     config.Metadata,
				},
			})
			if err != nil {
				return nil, err
			}
			if out.CRC64 != nil && *out.CRC64 != local {
				return nil, errors.NewObjectError("putObject", bucket, key,
					&errors.ChecksumMismatchError{Local: local, Remote: *out.CRC64})
			}
			return out, nil
		},
		retry.WithLogger(u.logger),
		retry.WithOperation("putObject"),
	)
	if err != nil {
		return nil, u.fail(config, err)
	}

	result := &osstypes.UploadResult{
		Key:       key,
		ETag:      output.ETag,
		CRC64:     local,
		Size:      size,
		Parts:     1,
		RequestID: output.RequestID,
		Duration:  time.Since(startTime),
	}

	// Call progress tracker if provided
	if config.ProgressTracker != nil {
		config.ProgressTracker.Update(size, size)
		config.ProgressTracker.Complete()
	}

	return result, nil
}

func (u *Uploader) fail(config *osstypes.UploadConfig, err error) error {
	if config.ProgressTracker != nil {
		config.ProgressTracker.Error(err)
	}
	return err
}

// readSized reads exactly size bytes from reader.
func readSized(reader io.Reader, size int64) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read %d bytes: %w", size, err)
	}
	return data, nil
}
