package testutil

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/crc64"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/ossapi"
)

// FakeOSS is an in-memory ossapi.API that assembles multipart uploads the
// way the service does. It is safe for concurrent use.
type FakeOSS struct {
	mu      sync.Mutex
	nextID  int
	uploads map[string]*fakeUpload
	objects map[string][]byte
	aborted map[string]bool

	// PartHook, when set, runs before a part is stored. A non-nil error
	// fails the call.
	PartHook func(ctx context.Context, in *ossapi.UploadPartInput) error

	// CompleteHook, when set, runs before an upload is assembled.
	CompleteHook func(ctx context.Context, in *ossapi.CompleteMultipartUploadInput) error

	// OmitCRC drops the checksum from every response.
	OmitCRC bool

	InitiateCalls   atomic.Int32
	UploadPartCalls atomic.Int32
	CompleteCalls   atomic.Int32
	AbortCalls      atomic.Int32
	PutObjectCalls  atomic.Int32

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

type fakeUpload struct {
	bucket string
	key    string
	parts  map[int32][]byte
}

var _ ossapi.API = (*FakeOSS)(nil)

// NewFakeOSS creates an empty FakeOSS.
func NewFakeOSS() *FakeOSS {
	return &FakeOSS{
		uploads: make(map[string]*fakeUpload),
		objects: make(map[string][]byte),
		aborted: make(map[string]bool),
	}
}

// Object returns a stored object.
func (f *FakeOSS) Object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	return data, ok
}

// Aborted reports whether uploadID was aborted.
func (f *FakeOSS) Aborted(uploadID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted[uploadID]
}

// MaxInFlight returns the highest number of concurrent UploadPart calls.
func (f *FakeOSS) MaxInFlight() int32 {
	return f.maxInFlight.Load()
}

// PutObject stores the body.
func (f *FakeOSS) PutObject(_ context.Context, in *ossapi.PutObjectInput) (*ossapi.PutObjectOutput, error) {
	f.PutObjectCalls.Add(1)

	f.mu.Lock()
	f.objects[in.Bucket+"/"+in.Key] = bytes.Clone(in.Body)
	f.mu.Unlock()

	return &ossapi.PutObjectOutput{ETag: "put-etag", CRC64: f.crc(crc64.Checksum(in.Body))}, nil
}

// InitiateMultipartUpload allocates an upload id.
func (f *FakeOSS) InitiateMultipartUpload(
	_ context.Context,
	in *ossapi.InitiateMultipartUploadInput,
) (*ossapi.InitiateMultipartUploadOutput, error) {
	f.InitiateCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("fake-upload-%d", f.nextID)
	f.uploads[id] = &fakeUpload{bucket: in.Bucket, key: in.Key, parts: make(map[int32][]byte)}

	return &ossapi.InitiateMultipartUploadOutput{Bucket: in.Bucket, Key: in.Key, UploadID: id}, nil
}

// UploadPart stores one part.
func (f *FakeOSS) UploadPart(ctx context.Context, in *ossapi.UploadPartInput) (*ossapi.UploadPartOutput, error) {
	f.UploadPartCalls.Add(1)

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	if f.PartHook != nil {
		if err := f.PartHook(ctx, in); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	up, ok := f.uploads[in.UploadID]
	if !ok {
		return nil, noSuchUpload()
	}
	up.parts[in.PartNumber] = bytes.Clone(in.Body)

	return &ossapi.UploadPartOutput{ETag: PartETag(in.PartNumber), CRC64: f.crc(crc64.Checksum(in.Body))}, nil
}

// CompleteMultipartUpload assembles the listed parts in order.
func (f *FakeOSS) CompleteMultipartUpload(
	ctx context.Context,
	in *ossapi.CompleteMultipartUploadInput,
) (*ossapi.CompleteMultipartUploadOutput, error) {
	f.CompleteCalls.Add(1)

	if f.CompleteHook != nil {
		if err := f.CompleteHook(ctx, in); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	up, ok := f.uploads[in.UploadID]
	if !ok {
		return nil, noSuchUpload()
	}

	if !sort.SliceIsSorted(in.Parts, func(i, j int) bool { return in.Parts[i].PartNumber < in.Parts[j].PartNumber }) {
		return nil, &errors.ServiceError{StatusCode: http.StatusBadRequest, Code: errors.CodeInvalidPartOrder}
	}

	var data []byte
	for _, p := range in.Parts {
		body, ok := up.parts[p.PartNumber]
		if !ok || p.ETag != PartETag(p.PartNumber) {
			return nil, &errors.ServiceError{StatusCode: http.StatusBadRequest, Code: errors.CodeInvalidPart}
		}
		data = append(data, body...)
	}

	f.objects[up.bucket+"/"+up.key] = data
	delete(f.uploads, in.UploadID)

	return &ossapi.CompleteMultipartUploadOutput{
		Bucket: up.bucket,
		Key:    up.key,
		ETag:   fmt.Sprintf("complete-%d", len(in.Parts)),
		CRC64:  f.crc(crc64.Checksum(data)),
	}, nil
}

// AbortMultipartUpload discards an upload.
func (f *FakeOSS) AbortMultipartUpload(
	_ context.Context,
	in *ossapi.AbortMultipartUploadInput,
) (*ossapi.AbortMultipartUploadOutput, error) {
	f.AbortCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.uploads[in.UploadID]; !ok {
		return nil, noSuchUpload()
	}
	delete(f.uploads, in.UploadID)
	f.aborted[in.UploadID] = true

	return &ossapi.AbortMultipartUploadOutput{}, nil
}

func (f *FakeOSS) crc(v uint64) *uint64 {
	if f.OmitCRC {
		return nil
	}
	return &v
}

func noSuchUpload() error {
	return &errors.ServiceError{
		StatusCode: http.StatusNotFound,
		Code:       errors.CodeNoSuchUpload,
		Message:    "The specified upload does not exist.",
	}
}

// PartETag is the ETag the mocks return for a part.
func PartETag(partNumber int32) string {
	return fmt.Sprintf("etag-%d", partNumber)
}
