package testutil

import (
	"sync"
	"sync/atomic"
)

// MockProgressTracker records every callback of an osstypes.ProgressTracker.
// It is safe for concurrent use and notes whether Update calls overlapped.
type MockProgressTracker struct {
	mu sync.Mutex

	UpdateCalled     bool
	CompleteCalled   bool
	ErrorCalled      bool
	BytesTransferred int64
	TotalBytes       int64
	LastError        error
	Updates          []ProgressUpdate

	inFlight   atomic.Int32
	overlapped atomic.Bool
}

// ProgressUpdate is one recorded Update call.
type ProgressUpdate struct {
	Transferred int64
	Total       int64
}

func (m *MockProgressTracker) Update(bytesTransferred, totalBytes int64) {
	if m.inFlight.Add(1) > 1 {
		m.overlapped.Store(true)
	}
	defer m.inFlight.Add(-1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalled = true
	m.BytesTransferred = bytesTransferred
	m.TotalBytes = totalBytes
	m.Updates = append(m.Updates, ProgressUpdate{
		Transferred: bytesTransferred,
		Total:       totalBytes,
	})
}

func (m *MockProgressTracker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalled = true
}

func (m *MockProgressTracker) Error(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalled = true
	m.LastError = err
}

// Overlapped reports whether two Update calls ever ran at the same time.
func (m *MockProgressTracker) Overlapped() bool {
	return m.overlapped.Load()
}

// Snapshot returns a copy of the recorded updates.
func (m *MockProgressTracker) Snapshot() []ProgressUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ProgressUpdate, len(m.Updates))
	copy(out, m.Updates)
	return out
}
