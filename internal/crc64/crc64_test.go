package crc64

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_KnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  uint64
	}{
		{name: "empty", input: "", want: 0},
		{name: "check string", input: "123456789", want: 0x995DC9BBDF1939FA},
		{name: "hello world", input: "hello world", want: 5981764153023615706},
		{name: "hello oss", input: "Hello OSS", want: 5213097489099810948},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum([]byte(tt.input)))
			assert.Equal(t, tt.want, Update(Init(), []byte(tt.input)))

			h := New()
			_, err := h.Write([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Sum64())
		})
	}
}

func TestUpdate_Streaming(t *testing.T) {
	data := randomBytes(t, 10_000, 1)

	crc := Init()
	for off := 0; off < len(data); off += 333 {
		end := min(off+333, len(data))
		crc = Update(crc, data[off:end])
	}

	assert.Equal(t, Checksum(data), crc)
}

func TestCombine_Law(t *testing.T) {
	tests := []struct {
		name string
		a, b []byte
	}{
		{name: "words", a: []byte("hello "), b: []byte("world")},
		{name: "empty right", a: []byte("abc"), b: nil},
		{name: "empty left", a: nil, b: []byte("abc")},
		{name: "random", a: randomBytes(t, 4097, 2), b: randomBytes(t, 1023, 3)},
		{name: "single bytes", a: []byte{0xff}, b: []byte{0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			whole := Checksum(append(append([]byte{}, tt.a...), tt.b...))
			got := Combine(Checksum(tt.a), Checksum(tt.b), int64(len(tt.b)))
			assert.Equal(t, whole, got)
		})
	}
}

func TestCombine_Identity(t *testing.T) {
	code := Checksum([]byte("some payload"))

	assert.Equal(t, code, Combine(Init(), code, int64(len("some payload"))))
	assert.Equal(t, code, Combine(code, Init(), 0))
}

func TestConcat_Associative(t *testing.T) {
	data := randomBytes(t, 50_000, 4)
	pieces := [][]byte{data[:7], data[7:10_000], data[10_000:10_001], data[10_001:]}

	digests := make([]Digest, len(pieces))
	for i, p := range pieces {
		digests[i] = Sum(p)
	}

	left := Digest{}
	for _, d := range digests {
		left = Concat(left, d)
	}

	right := Digest{}
	for i := len(digests) - 1; i >= 0; i-- {
		right = Concat(digests[i], right)
	}

	grouped := Concat(Concat(digests[0], digests[1]), Concat(digests[2], digests[3]))

	want := Sum(data)
	assert.Equal(t, want, left)
	assert.Equal(t, want, right)
	assert.Equal(t, want, grouped)
	assert.Equal(t, digests[1], Concat(Digest{}, digests[1]))
}

func TestParseHeader(t *testing.T) {
	got, err := ParseHeader(" 5981764153023615706 ")
	require.NoError(t, err)
	assert.Equal(t, uint64(5981764153023615706), got)
	assert.Equal(t, "5981764153023615706", FormatHeader(got))

	_, err = ParseHeader("not-a-number")
	assert.Error(t, err)
}

func randomBytes(t *testing.T, n int, seed int64) []byte {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	buf := make([]byte, n)
	_, err := r.Read(buf)
	require.NoError(t, err)
	require.False(t, bytes.Equal(buf, make([]byte, n)))
	return buf
}
