package multipart

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
)

// Service limits for multipart uploads.
const (
	// DefaultPartSize is used when no part size is configured.
	DefaultPartSize int64 = 8 * 1024 * 1024

	// MinPartSize is the smallest size allowed for any part but the last.
	MinPartSize int64 = 100 * 1024

	// MaxPartSize is the largest size allowed for a single part.
	MaxPartSize int64 = 5 * 1024 * 1024 * 1024

	// MaxParts is the largest part number the service accepts.
	MaxParts = 10000
)

// Part is one contiguous byte range of the source payload.
type Part struct {
	Number int32
	Offset int64
	Size   int64
}

// Plan is the result of partitioning a payload.
type Plan struct {
	// PartSize is the effective part size. It is larger than the requested
	// size when the payload would otherwise need more than MaxParts parts.
	PartSize int64
	Parts    []Part
}

// Total returns the number of bytes covered by the plan.
func (p *Plan) Total() int64 {
	var n int64
	for _, part := range p.Parts {
		n += part.Size
	}
	return n
}

// Partition splits total bytes into parts of partSize bytes, the last part
// holding the remainder.
//
// A requested part size below MinPartSize is an error whenever more than one
// part is needed; it is never silently raised. An empty payload yields a
// single empty part when allowEmpty is set and is rejected otherwise.
func Partition(total, partSize int64, allowEmpty bool) (*Plan, error) {
	if total < 0 {
		return nil, errors.NewError("partition", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("payload size must not be negative, got %d", total))
	}
	if partSize <= 0 {
		partSize = DefaultPartSize
	}
	if partSize > MaxPartSize {
		return nil, &errors.InvalidPartSizeError{PartSize: partSize, MinSize: MinPartSize}
	}

	if total == 0 {
		if !allowEmpty {
			return nil, errors.NewError("partition", errors.ErrInvalidInput).
				WithMessage("empty payload cannot be uploaded in parts")
		}
		return &Plan{PartSize: partSize, Parts: []Part{{Number: 1}}}, nil
	}

	n := ceilDiv(total, partSize)
	if n > 1 && partSize < MinPartSize {
		return nil, &errors.InvalidPartSizeError{PartSize: partSize, MinSize: MinPartSize}
	}
	if n > MaxParts {
		partSize = ceilDiv(total, MaxParts)
		if partSize > MaxPartSize {
			return nil, errors.NewError("partition", errors.ErrInvalidInput).
				WithMessage(fmt.Sprintf("payload of %d bytes exceeds the multipart size limit", total))
		}
		n = ceilDiv(total, partSize)
	}

	parts := make([]Part, n)
	for i := range parts {
		offset := int64(i) * partSize
		size := partSize
		if offset+size > total {
			size = total - offset
		}
		parts[i] = Part{Number: int32(i + 1), Offset: offset, Size: size}
	}

	return &Plan{PartSize: partSize, Parts: parts}, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
