package multipart

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/crc64"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/ossapi"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/retry"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/osstypes"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateActive accepts parts, Complete and Abort.
	StateActive State = iota

	// StateCompleting means a Complete call is in flight.
	StateCompleting

	// StateCompleted is terminal: the object exists.
	StateCompleted

	// StateAborted is terminal: the upload id is gone.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleting:
		return "completing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SessionConfig configures Initiate.
type SessionConfig struct {
	API     ossapi.API
	Retryer aws.Retryer
	Logger  *slog.Logger

	Bucket  string
	Key     string
	Headers ossapi.ObjectHeaders

	// Total is the payload size reported to the progress tracker, -1 when
	// unknown.
	Total   int64
	Tracker osstypes.ProgressTracker
}

// Session is one multipart upload id and the parts uploaded under it.
// It is safe for concurrent use.
type Session struct {
	api     ossapi.API
	retryer aws.Retryer
	logger  *slog.Logger
	tracker osstypes.ProgressTracker

	bucket   string
	key      string
	uploadID string
	total    int64

	mu          sync.Mutex
	state       State
	parts       map[int32]osstypes.PartOutcome
	transferred int64
}

// Initiate starts a multipart upload. The call is retried since a lost
// response only leaves an unused upload id behind.
func Initiate(ctx context.Context, cfg SessionConfig) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	out, err := retry.Do(ctx, cfg.Retryer,
		func(ctx context.Context, _ int) (*ossapi.InitiateMultipartUploadOutput, error) {
			return cfg.API.InitiateMultipartUpload(ctx, &ossapi.InitiateMultipartUploadInput{
				Bucket:        cfg.Bucket,
				Key:           cfg.Key,
				ObjectHeaders: cfg.Headers,
			})
		},
		retry.WithLogger(logger),
		retry.WithOperation("initiateMultipartUpload"),
	)
	if err != nil {
		return nil, err
	}
	if out.UploadID == "" {
		return nil, errors.NewObjectError("initiateMultipartUpload", cfg.Bucket, cfg.Key, errors.ErrInvalidInput).
			WithMessage("service returned an empty upload id")
	}

	logger.DebugContext(ctx, "multipart upload initiated",
		"bucket", cfg.Bucket,
		"key", cfg.Key,
		"upload_id", out.UploadID)

	return &Session{
		api:      cfg.API,
		retryer:  cfg.Retryer,
		logger:   logger,
		tracker:  cfg.Tracker,
		bucket:   cfg.Bucket,
		key:      cfg.Key,
		uploadID: out.UploadID,
		total:    cfg.Total,
		parts:    make(map[int32]osstypes.PartOutcome),
	}, nil
}

// UploadID returns the service issued upload id.
func (s *Session) UploadID() string {
	return s.uploadID
}

// Bucket returns the target bucket.
func (s *Session) Bucket() string {
	return s.bucket
}

// Key returns the target object key.
func (s *Session) Key() string {
	return s.key
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UploadPart uploads body as part partNumber. The service overwrites parts by
// number, so the upload is retried on transient failures. When the service
// reports a CRC64 that differs from the local one the part fails with a
// *errors.ChecksumMismatchError and is not retried.
//
// Uploading the same part number twice replaces the earlier outcome.
func (s *Session) UploadPart(ctx context.Context, partNumber int32, body []byte) (osstypes.PartOutcome, error) {
	if partNumber < 1 || partNumber > MaxParts {
		return osstypes.PartOutcome{}, errors.NewObjectError("uploadPart", s.bucket, s.key, errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("part number must be between 1 and %d, got %d", MaxParts, partNumber))
	}
	if err := s.checkActive("uploadPart"); err != nil {
		return osstypes.PartOutcome{}, err
	}

	local := crc64.Checksum(body)
	out, err := retry.Do(ctx, s.retryer,
		func(ctx context.Context, _ int) (*ossapi.UploadPartOutput, error) {
			out, err := s.api.UploadPart(ctx, &ossapi.UploadPartInput{
				Bucket:     s.bucket,
				Key:        s.key,
				UploadID:   s.uploadID,
				PartNumber: partNumber,
				Body:       body,
			})
			if err != nil {
				return nil, err
			}
			if out.CRC64 != nil && *out.CRC64 != local {
				return nil, &errors.ChecksumMismatchError{Local: local, Remote: *out.CRC64, PartNumber: partNumber}
			}
			return out, nil
		},
		retry.WithLogger(s.logger),
		retry.WithOperation("uploadPart"),
	)
	if err != nil {
		return osstypes.PartOutcome{}, err
	}

	outcome := osstypes.PartOutcome{
		PartNumber: partNumber,
		ETag:       out.ETag,
		Size:       int64(len(body)),
		CRC64:      local,
	}
	if err := s.record(outcome); err != nil {
		return osstypes.PartOutcome{}, err
	}
	return outcome, nil
}

// record stores outcome and reports progress. Progress is delivered under the
// session lock, so tracker calls never overlap and the reported aggregate
// never decreases. A part number counts towards progress only once.
func (s *Session) record(outcome osstypes.PartOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return errors.NewObjectError("uploadPart", s.bucket, s.key, errors.ErrAlreadyFinalized).
			WithMessage(fmt.Sprintf("upload %s is %s", s.uploadID, s.state))
	}

	if _, seen := s.parts[outcome.PartNumber]; !seen {
		s.transferred += outcome.Size
	}
	s.parts[outcome.PartNumber] = outcome

	if s.tracker != nil {
		s.tracker.Update(s.transferred, s.total)
	}
	return nil
}

// Parts returns the recorded outcomes sorted by part number.
func (s *Session) Parts() []osstypes.PartOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedParts()
}

// Transferred returns the number of bytes acknowledged so far.
func (s *Session) Transferred() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transferred
}

func (s *Session) sortedParts() []osstypes.PartOutcome {
	parts := make([]osstypes.PartOutcome, 0, len(s.parts))
	for _, p := range s.parts {
		parts = append(parts, p)
	}
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})
	return parts
}

// Complete assembles the recorded parts in part number order. It is issued
// once and never retried.
//
// When the service reports a CRC64 for the object it is checked against the
// local combination of the part checksums. A mismatch returns a
// *errors.ChecksumMismatchError although the object now exists; deciding
// whether to delete it is up to the caller.
//
// If the call fails the session stays active so that it can be aborted.
func (s *Session) Complete(ctx context.Context) (*osstypes.UploadResult, error) {
	const op = "completeMultipartUpload"

	s.mu.Lock()
	if s.state != StateActive {
		state := s.state
		s.mu.Unlock()
		return nil, errors.NewObjectError(op, s.bucket, s.key, errors.ErrAlreadyFinalized).
			WithMessage(fmt.Sprintf("upload %s is %s", s.uploadID, state))
	}
	if len(s.parts) == 0 {
		s.mu.Unlock()
		return nil, errors.NewObjectError(op, s.bucket, s.key, errors.ErrInvalidInput).
			WithMessage("no parts were uploaded")
	}
	s.state = StateCompleting
	parts := s.sortedParts()
	s.mu.Unlock()

	completed := make([]ossapi.CompletedPart, len(parts))
	var digest crc64.Digest
	for i, p := range parts {
		completed[i] = ossapi.CompletedPart{PartNumber: p.PartNumber, ETag: p.ETag}
		digest = crc64.Concat(digest, crc64.Digest{CRC: p.CRC64, Len: p.Size})
	}

	out, err := s.api.CompleteMultipartUpload(ctx, &ossapi.CompleteMultipartUploadInput{
		Bucket:   s.bucket,
		Key:      s.key,
		UploadID: s.uploadID,
		Parts:    completed,
	})

	s.mu.Lock()
	if err != nil {
		s.state = StateActive
	} else {
		s.state = StateCompleted
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "multipart upload completed",
		"bucket", s.bucket,
		"key", s.key,
		"upload_id", s.uploadID,
		"parts", len(parts),
		"size", digest.Len)

	if out.CRC64 != nil && *out.CRC64 != digest.CRC {
		return nil, errors.NewObjectError(op, s.bucket, s.key,
			&errors.ChecksumMismatchError{Local: digest.CRC, Remote: *out.CRC64})
	}

	return &osstypes.UploadResult{
		Key:       s.key,
		ETag:      out.ETag,
		CRC64:     digest.CRC,
		Size:      digest.Len,
		Parts:     len(parts),
		Multipart: true,
		UploadID:  s.uploadID,
		RequestID: out.RequestID,
	}, nil
}

// Abort discards the upload and every part uploaded under it. It is terminal:
// the session refuses further parts and a second Abort, like an Abort after
// Complete, returns errors.ErrAlreadyFinalized. A NoSuchUpload answer from the
// service maps to the same error.
//
// Abort is issued once and never retried.
func (s *Session) Abort(ctx context.Context) error {
	const op = "abortMultipartUpload"

	s.mu.Lock()
	if s.state != StateActive {
		state := s.state
		s.mu.Unlock()
		return errors.NewObjectError(op, s.bucket, s.key, errors.ErrAlreadyFinalized).
			WithMessage(fmt.Sprintf("upload %s is %s", s.uploadID, state))
	}
	s.state = StateAborted
	clear(s.parts)
	s.mu.Unlock()

	_, err := s.api.AbortMultipartUpload(ctx, &ossapi.AbortMultipartUploadInput{
		Bucket:   s.bucket,
		Key:      s.key,
		UploadID: s.uploadID,
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrNoSuchUpload) {
			return errors.NewObjectError(op, s.bucket, s.key, errors.ErrAlreadyFinalized).
				WithMessage(fmt.Sprintf("upload %s no longer exists", s.uploadID))
		}
		return err
	}

	s.logger.DebugContext(ctx, "multipart upload aborted",
		"bucket", s.bucket,
		"key", s.key,
		"upload_id", s.uploadID)
	return nil
}

func (s *Session) checkActive(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return errors.NewObjectError(op, s.bucket, s.key, errors.ErrAlreadyFinalized).
			WithMessage(fmt.Sprintf("upload %s is %s", s.uploadID, s.state))
	}
	return nil
}
