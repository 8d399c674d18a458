package multipart

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/crc64"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/ossapi"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/retry"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/testutil"
)

func testRetryer() *retry.Retryer {
	return retry.New(retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	})
}

func newTestSession(t *testing.T, api ossapi.API, tracker *testutil.MockProgressTracker, total int64) *Session {
	t.Helper()
	cfg := SessionConfig{
		API:     api,
		Retryer: testRetryer(),
		Bucket:  "test-bucket",
		Key:     "test-key",
		Total:   total,
	}
	if tracker != nil {
		cfg.Tracker = tracker
	}
	sess, err := Initiate(context.Background(), cfg)
	require.NoError(t, err)
	return sess
}

func serverError() error {
	return &errors.ServiceError{StatusCode: http.StatusInternalServerError, Code: errors.CodeInternalError}
}

func TestInitiate_RetriesTransientFailures(t *testing.T) {
	mockAPI := &testutil.MockOSSAPI{}
	mockAPI.InitiateMultipartUploadFunc = func(
		_ context.Context,
		in *ossapi.InitiateMultipartUploadInput,
	) (*ossapi.InitiateMultipartUploadOutput, error) {
		if mockAPI.InitiateCalls.Load() < 2 {
			return nil, serverError()
		}
		return &ossapi.InitiateMultipartUploadOutput{UploadID: "upload-1"}, nil
	}

	sess := newTestSession(t, mockAPI, nil, 0)
	assert.Equal(t, "upload-1", sess.UploadID())
	assert.Equal(t, int32(2), mockAPI.InitiateCalls.Load())
	assert.Equal(t, StateActive, sess.State())
}

func TestInitiate_EmptyUploadID(t *testing.T) {
	mockAPI := &testutil.MockOSSAPI{
		InitiateMultipartUploadFunc: func(
			context.Context,
			*ossapi.InitiateMultipartUploadInput,
		) (*ossapi.InitiateMultipartUploadOutput, error) {
			return &ossapi.InitiateMultipartUploadOutput{}, nil
		},
	}

	_, err := Initiate(context.Background(), SessionConfig{API: mockAPI, Retryer: testRetryer()})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestSession_CompleteSortsParts(t *testing.T) {
	var captured []ossapi.CompletedPart
	mockAPI := &testutil.MockOSSAPI{
		CompleteMultipartUploadFunc: func(
			_ context.Context,
			in *ossapi.CompleteMultipartUploadInput,
		) (*ossapi.CompleteMultipartUploadOutput, error) {
			captured = in.Parts
			return &ossapi.CompleteMultipartUploadOutput{ETag: "final"}, nil
		},
	}
	sess := newTestSession(t, mockAPI, nil, 9)

	chunks := [][]byte{[]byte("aaa"), []byte("bbb"), []byte("ccc")}
	for _, n := range []int32{3, 1, 2} {
		_, err := sess.UploadPart(context.Background(), n, chunks[n-1])
		require.NoError(t, err)
	}

	result, err := sess.Complete(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []ossapi.CompletedPart{
		{PartNumber: 1, ETag: testutil.PartETag(1)},
		{PartNumber: 2, ETag: testutil.PartETag(2)},
		{PartNumber: 3, ETag: testutil.PartETag(3)},
	}, captured)
	assert.Equal(t, crc64.Checksum([]byte("aaabbbccc")), result.CRC64)
	assert.Equal(t, int64(9), result.Size)
	assert.Equal(t, 3, result.Parts)
	assert.True(t, result.Multipart)
	assert.Equal(t, "final", result.ETag)
	assert.Equal(t, StateCompleted, sess.State())
}

func TestSession_PartChecksumMismatchNotRetried(t *testing.T) {
	mockAPI := &testutil.MockOSSAPI{
		UploadPartFunc: func(_ context.Context, in *ossapi.UploadPartInput) (*ossapi.UploadPartOutput, error) {
			bad := crc64.Checksum(in.Body) ^ 1
			return &ossapi.UploadPartOutput{ETag: "e", CRC64: &bad}, nil
		},
	}
	sess := newTestSession(t, mockAPI, nil, 4)

	_, err := sess.UploadPart(context.Background(), 1, []byte("data"))

	var mismatch *errors.ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int32(1), mismatch.PartNumber)
	assert.Equal(t, crc64.Checksum([]byte("data")), mismatch.Local)
	assert.Equal(t, int32(1), mockAPI.UploadPartCalls.Load())
	assert.Empty(t, sess.Parts())
}

func TestSession_UploadPartRetriesThenExhausts(t *testing.T) {
	mockAPI := &testutil.MockOSSAPI{
		UploadPartFunc: func(context.Context, *ossapi.UploadPartInput) (*ossapi.UploadPartOutput, error) {
			return nil, serverError()
		},
	}
	sess := newTestSession(t, mockAPI, nil, 4)

	_, err := sess.UploadPart(context.Background(), 1, []byte("data"))

	var exhausted *errors.RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, int32(3), mockAPI.UploadPartCalls.Load())
}

func TestSession_UploadPartNumberRange(t *testing.T) {
	sess := newTestSession(t, &testutil.MockOSSAPI{}, nil, 0)

	for _, n := range []int32{0, -1, MaxParts + 1} {
		_, err := sess.UploadPart(context.Background(), n, []byte("x"))
		assert.ErrorIs(t, err, errors.ErrInvalidInput, "part %d", n)
	}
}

func TestSession_CompleteChecksumMismatch(t *testing.T) {
	mockAPI := &testutil.MockOSSAPI{
		CompleteMultipartUploadFunc: func(
			context.Context,
			*ossapi.CompleteMultipartUploadInput,
		) (*ossapi.CompleteMultipartUploadOutput, error) {
			remote := uint64(42)
			return &ossapi.CompleteMultipartUploadOutput{CRC64: &remote}, nil
		},
	}
	sess := newTestSession(t, mockAPI, nil, 5)
	_, err := sess.UploadPart(context.Background(), 1, []byte("hello"))
	require.NoError(t, err)

	result, err := sess.Complete(context.Background())
	assert.Nil(t, result)

	var mismatch *errors.ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, uint64(42), mismatch.Remote)
	assert.Equal(t, crc64.Checksum([]byte("hello")), mismatch.Local)
	assert.Zero(t, mismatch.PartNumber)
	assert.Equal(t, StateCompleted, sess.State())
}

func TestSession_CompleteFailureLeavesSessionActive(t *testing.T) {
	mockAPI := &testutil.MockOSSAPI{
		CompleteMultipartUploadFunc: func(
			context.Context,
			*ossapi.CompleteMultipartUploadInput,
		) (*ossapi.CompleteMultipartUploadOutput, error) {
			return nil, serverError()
		},
	}
	sess := newTestSession(t, mockAPI, nil, 1)
	_, err := sess.UploadPart(context.Background(), 1, []byte("x"))
	require.NoError(t, err)

	_, err = sess.Complete(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), mockAPI.CompleteCalls.Load(), "complete must not be retried")
	assert.Equal(t, StateActive, sess.State())

	require.NoError(t, sess.Abort(context.Background()))
	assert.Equal(t, int32(1), mockAPI.AbortCalls.Load())
}

func TestSession_CompleteWithoutParts(t *testing.T) {
	mockAPI := &testutil.MockOSSAPI{}
	sess := newTestSession(t, mockAPI, nil, 0)

	_, err := sess.Complete(context.Background())
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Zero(t, mockAPI.CompleteCalls.Load())
}

func TestSession_AbortIsTerminal(t *testing.T) {
	mockAPI := &testutil.MockOSSAPI{}
	sess := newTestSession(t, mockAPI, nil, 1)

	require.NoError(t, sess.Abort(context.Background()))
	assert.Equal(t, StateAborted, sess.State())

	err := sess.Abort(context.Background())
	assert.ErrorIs(t, err, errors.ErrAlreadyFinalized)

	_, err = sess.UploadPart(context.Background(), 1, []byte("x"))
	assert.ErrorIs(t, err, errors.ErrAlreadyFinalized)

	_, err = sess.Complete(context.Background())
	assert.ErrorIs(t, err, errors.ErrAlreadyFinalized)

	assert.Equal(t, int32(1), mockAPI.AbortCalls.Load())
	assert.Zero(t, mockAPI.UploadPartCalls.Load())
	assert.Zero(t, mockAPI.CompleteCalls.Load())
}

func TestSession_AbortAfterComplete(t *testing.T) {
	mockAPI := &testutil.MockOSSAPI{}
	sess := newTestSession(t, mockAPI, nil, 1)
	_, err := sess.UploadPart(context.Background(), 1, []byte("x"))
	require.NoError(t, err)
	_, err = sess.Complete(context.Background())
	require.NoError(t, err)

	err = sess.Abort(context.Background())
	assert.ErrorIs(t, err, errors.ErrAlreadyFinalized)
	assert.Zero(t, mockAPI.AbortCalls.Load())
}

func TestSession_AbortUnknownUpload(t *testing.T) {
	fake := testutil.NewFakeOSS()
	sess := newTestSession(t, fake, nil, 0)

	// Drop the upload behind the session's back.
	_, err := fake.AbortMultipartUpload(context.Background(), &ossapi.AbortMultipartUploadInput{UploadID: sess.UploadID()})
	require.NoError(t, err)

	err = sess.Abort(context.Background())
	assert.ErrorIs(t, err, errors.ErrAlreadyFinalized)
	assert.Equal(t, StateAborted, sess.State())
}

func TestSession_ProgressSerializedAndMonotonic(t *testing.T) {
	tracker := &testutil.MockProgressTracker{}
	const parts = 32
	sess := newTestSession(t, &testutil.MockOSSAPI{}, tracker, parts*10)

	var wg sync.WaitGroup
	for i := 1; i <= parts; i++ {
		wg.Add(1)
		go func(n int32) {
			defer wg.Done()
			_, err := sess.UploadPart(context.Background(), n, make([]byte, 10))
			assert.NoError(t, err)
		}(int32(i))
	}
	wg.Wait()

	updates := tracker.Snapshot()
	require.Len(t, updates, parts)
	for i := 1; i < len(updates); i++ {
		assert.GreaterOrEqual(t, updates[i].Transferred, updates[i-1].Transferred)
	}
	assert.Equal(t, int64(parts*10), updates[len(updates)-1].Transferred)
	assert.Equal(t, int64(parts*10), updates[0].Total)
	assert.False(t, tracker.Overlapped())
}

func TestSession_ReuploadCountsOnce(t *testing.T) {
	tracker := &testutil.MockProgressTracker{}
	sess := newTestSession(t, &testutil.MockOSSAPI{}, tracker, 3)

	_, err := sess.UploadPart(context.Background(), 1, []byte("abc"))
	require.NoError(t, err)
	_, err = sess.UploadPart(context.Background(), 1, []byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, int64(3), sess.Transferred())
	assert.Len(t, sess.Parts(), 1)
	assert.Equal(t, int64(3), tracker.BytesTransferred)
}
