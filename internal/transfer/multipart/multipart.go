package multipart

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/ossapi"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/osstypes"
)

const (
	// DefaultConcurrency is the number of parts uploaded in parallel when
	// neither the upload nor the client configures it.
	DefaultConcurrency = 8

	// DefaultAbortTimeout bounds the abort call issued after a failure.
	DefaultAbortTimeout = 30 * time.Second
)

// Abort reasons reported in errors.TransferAbortedError.
const (
	ReasonPartFailed     = "part upload failed"
	ReasonReadFailed     = "reading source failed"
	ReasonCancelled      = "cancelled"
	ReasonCompleteFailed = "complete failed"
)

// Uploader handles multipart upload operations
type Uploader struct {
	api          ossapi.API
	retryer      aws.Retryer
	logger       *slog.Logger
	abortTimeout time.Duration
	allowEmpty   bool
	concurrency  int
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) UploaderOption {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithAbortTimeout bounds the abort call issued after a failure.
func WithAbortTimeout(d time.Duration) UploaderOption {
	return func(u *Uploader) {
		if d > 0 {
			u.abortTimeout = d
		}
	}
}

// WithAllowEmpty makes an empty payload upload as a single empty part instead
// of being rejected.
func WithAllowEmpty(allow bool) UploaderOption {
	return func(u *Uploader) {
		u.allowEmpty = allow
	}
}

// WithConcurrency sets the concurrency used when the upload config leaves it
// unset.
func WithConcurrency(n int) UploaderOption {
	return func(u *Uploader) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

// NewUploader creates a new multipart uploader
func NewUploader(api ossapi.API, retryer aws.Retryer, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		api:          api,
		retryer:      retryer,
		logger:       slog.New(slog.DiscardHandler),
		abortTimeout: DefaultAbortTimeout,
		concurrency:  DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload performs a multipart upload of size bytes read from reader.
//
// Parts are read sequentially into pooled buffers and uploaded by at most
// config.Concurrency workers, each part retried independently. The first part
// that fails for good, a read error or a cancelled ctx stops the dispatch of
// further parts; parts already in flight run to completion and their results
// are discarded. The upload is then aborted exactly once and the returned
// error is an *errors.TransferAbortedError.
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
	tracker := config.ProgressTracker

	result, err := u.upload(ctx, bucket, key, reader, size, config)
	if err != nil {
		if tracker != nil {
			tracker.Error(err)
		}
		return nil, err
	}
	if tracker != nil {
		tracker.Complete()
	}
	return result, nil
}

func (u *Uploader) upload(
	ctx context.Context,
	bucket, key string,
	reader io.Reader,
	size int64,
	config *osstypes.UploadConfig,
) (*osstypes.UploadResult, error) {
	startTime := time.Now()

	plan, err := Partition(size, config.PartSize, u.allowEmpty)
	if err != nil {
		return nil, errors.NewObjectError("upload", bucket, key, err)
	}
	concurrency := u.getConcurrency(config.Concurrency)

	sess, err := Initiate(ctx, SessionConfig{
		API:     u.api,
		Retryer: u.retryer,
		Logger:  u.logger,
		Bucket:  bucket,
		Key:     key,
		Headers: ossapi.ObjectHeaders{
			ContentType:  config.ContentType,
			StorageClass: config.StorageClass,
			ACL:          config.ACL,
			Metadata:     config.Metadata,
		},
		Total:   size,
		Tracker: config.ProgressTracker,
	})
	if err != nil {
		return nil, err
	}

	u.logger.DebugContext(ctx, "uploading parts",
		"bucket", bucket,
		"key", key,
		"upload_id", sess.UploadID(),
		"parts", len(plan.Parts),
		"part_size", plan.PartSize,
		"concurrency", concurrency)

	if f := u.uploadParts(ctx, sess, reader, plan, concurrency); f != nil {
		return nil, u.abort(ctx, sess, f.reason, f.partNumber, f.err)
	}

	result, err := sess.Complete(ctx)
	if err != nil {
		// A checksum mismatch is reported after the object was assembled;
		// there is nothing left to abort.
		if stderrors.Is(err, errors.ErrChecksumMismatch) {
			return nil, err
		}
		return nil, u.abort(ctx, sess, ReasonCompleteFailed, 0, err)
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// partFailure is the first terminal failure of a session.
type partFailure struct {
	reason     string
	partNumber int32
	err        error
}

// uploadParts dispatches every part of plan and returns the first failure,
// or nil when all parts were recorded.
func (u *Uploader) uploadParts(
	ctx context.Context,
	sess *Session,
	reader io.Reader,
	plan *Plan,
	concurrency int,
) *partFailure {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		failure *partFailure
	)
	fail := func(f *partFailure) {
		mu.Lock()
		defer mu.Unlock()
		if failure == nil {
			failure = f
		}
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failure != nil
	}

	buffers := pool.ForSize(int(plan.PartSize))
	g.SetLimit(concurrency)

	for _, part := range plan.Parts {
		if failed() {
			break
		}
		if err := ctx.Err(); err != nil {
			fail(&partFailure{reason: ReasonCancelled, err: err})
			break
		}

		buf := buffers.Get()[:part.Size]
		if _, err := io.ReadFull(reader, buf); err != nil {
			buffers.Put(buf)
			fail(&partFailure{
				reason:     ReasonReadFailed,
				partNumber: part.Number,
				err:        fmt.Errorf("read part %d: %w", part.Number, err),
			})
			break
		}

		g.Go(func() error {
			defer buffers.Put(buf)
			if failed() {
				return nil
			}
			if _, err := sess.UploadPart(ctx, part.Number, buf); err != nil {
				reason := ReasonPartFailed
				if ctx.Err() != nil {
					reason = ReasonCancelled
				}
				fail(&partFailure{reason: reason, partNumber: part.Number, err: err})
			}
			return nil
		})
	}
	_ = g.Wait()

	if failure == nil {
		if err := ctx.Err(); err != nil {
			return &partFailure{reason: ReasonCancelled, err: err}
		}
	}
	return failure
}

// abort aborts sess on a context detached from ctx's cancellation so that a
// cancelled upload is still cleaned up at the service.
func (u *Uploader) abort(ctx context.Context, sess *Session, reason string, partNumber int32, cause error) error {
	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.abortTimeout)
	defer cancel()

	u.logger.WarnContext(ctx, "aborting multipart upload",
		"bucket", sess.Bucket(),
		"key", sess.Key(),
		"upload_id", sess.UploadID(),
		"reason", reason,
		"part", partNumber,
		"error", cause)

	aborted := &errors.TransferAbortedError{Reason: reason, PartNumber: partNumber, Err: cause}
	if err := sess.Abort(abortCtx); err != nil {
		u.logger.ErrorContext(ctx, "failed to abort multipart upload",
			"bucket", sess.Bucket(),
			"key", sess.Key(),
			"upload_id", sess.UploadID(),
			"error", err)
		aborted.Err = stderrors.Join(cause, fmt.Errorf("abort upload %s: %w", sess.UploadID(), err))
	}
	return aborted
}

// getConcurrency returns the configured concurrency level or default
func (u *Uploader) getConcurrency(configured int) int {
	if configured > 0 {
		return configured
	}
	return u.concurrency
}
