package testutil

import (
	"math/rand"
)

// TestDataGenerator provides methods for generating test data.
type TestDataGenerator struct {
	rand *rand.Rand
}

// NewTestDataGenerator creates a new test data generator with a seeded random source.
func NewTestDataGenerator(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateData returns size pseudo-random bytes.
func (g *TestDataGenerator) GenerateData(size int) []byte {
	data := make([]byte, size)
	_, _ = g.rand.Read(data)
	return data
}

// GenerateSizes returns count sizes in [minSize, maxSize].
func (g *TestDataGenerator) GenerateSizes(count int, minSize, maxSize int64) []int64 {
	sizes := make([]int64, count)
	for i := range sizes {
		sizes[i] = minSize + g.rand.Int63n(maxSize-minSize+1)
	}
	return sizes
}
