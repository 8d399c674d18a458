package validation

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/osstypes"
)

// Object key and metadata limits.
const (
	MaxKeyLength        = 1023
	MaxMetadataSize     = 8 * 1024
	MinBucketNameLength = 3
	MaxBucketNameLength = 63
)

var mimePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-+.]*/[a-zA-Z0-9][a-zA-Z0-9\-+.]*(\s*;.*)?$`)

// ValidateBucketName checks OSS bucket naming: 3-63 characters of lowercase
// letters, digits and hyphens, not starting or ending with a hyphen.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
			WithMessage("bucket name cannot be empty")
	}

	if len(bucket) < MinBucketNameLength || len(bucket) > MaxBucketNameLength {
		return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(fmt.Sprintf("bucket name must be between %d and %d characters long, got %d",
				MinBucketNameLength, MaxBucketNameLength, len(bucket)))
	}

	for _, char := range bucket {
		if !isLowerAlnumOrHyphen(char) {
			return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
				WithBucket(bucket).
				WithMessage("bucket name can only contain lowercase letters, numbers, and hyphens")
		}
	}

	if bucket[0] == '-' || bucket[len(bucket)-1] == '-' {
		return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage("bucket name cannot start or end with a hyphen")
	}

	return nil
}

// ValidateObjectKey checks that a key is 1-1023 bytes of valid UTF-8 without
// control characters or a leading slash.
func ValidateObjectKey(key string) error {
	if key == "" {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithMessage("object key cannot be empty")
	}

	if len(key) > MaxKeyLength {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithMessage(fmt.Sprintf("object key must be at most %d bytes, got %d", MaxKeyLength, len(key)))
	}

	if !utf8.ValidString(key) {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithMessage("object key must be valid UTF-8")
	}

	if key[0] == '/' || key[0] == '\\' {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage("object key cannot start with a slash or backslash")
	}

	for _, char := range key {
		if unicode.IsControl(char) {
			return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
				WithMessage("object key cannot contain control characters")
		}
	}

	return nil
}

// ValidateRegion checks that a region is non-empty and contains only
// lowercase letters, digits and hyphens.
func ValidateRegion(region string) error {
	if region == "" {
		return errors.NewError("validateRegion", errors.ErrInvalidRegion).
			WithMessage("region cannot be empty")
	}

	for _, char := range region {
		if !isLowerAlnumOrHyphen(char) {
			return errors.NewError("validateRegion", errors.ErrInvalidRegion).
				WithMessage(fmt.Sprintf("region %q can only contain lowercase letters, numbers, and hyphens", region))
		}
	}

	return nil
}

// ValidateMetadata checks user metadata. Keys become x-oss-meta-* headers
// and may only contain ASCII letters, digits and hyphens; values must be
// printable ASCII. The total size is limited to 8 KiB.
func ValidateMetadata(metadata map[string]string) error {
	total := 0
	for key, value := range metadata {
		if key == "" {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage("metadata key cannot be empty")
		}

		for _, char := range key {
			if !isASCIIAlnum(char) && char != '-' {
				return errors.NewError("validateMetadata", errors.ErrInvalidInput).
					WithMessage(fmt.Sprintf("metadata key %q can only contain letters, numbers, and hyphens", key))
			}
		}

		for _, char := range value {
			if char < 0x20 || char > 0x7e {
				return errors.NewError("validateMetadata", errors.ErrInvalidInput).
					WithMessage(fmt.Sprintf("metadata value for %q can only contain printable ASCII characters", key))
			}
		}

		total += len(key) + len(value)
	}

	if total > MaxMetadataSize {
		return errors.NewError("validateMetadata", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("metadata cannot exceed %d bytes, got %d", MaxMetadataSize, total))
	}

	return nil
}

// ValidateContentType checks that a content type looks like a MIME type.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil
	}

	if !mimePattern.MatchString(contentType) {
		return errors.NewError("validateContentType", errors.ErrInvalidInput).
			WithMessage("content type must be a valid MIME type")
	}

	return nil
}

// ValidateACL validates that an ACL value is valid.
func ValidateACL(acl osstypes.ObjectACL) error {
	switch acl {
	case "", osstypes.ACLDefault, osstypes.ACLPrivate, osstypes.ACLPublicRead, osstypes.ACLPublicReadWrite:
		return nil
	}
	return errors.NewError("validateACL", errors.ErrInvalidInput).
		WithMessage(fmt.Sprintf("ACL must be one of: default, private, public-read, public-read-write, got %q", acl))
}

// ValidateStorageClass validates that a storage class is known.
func ValidateStorageClass(class osstypes.StorageClass) error {
	switch class {
	case "",
		osstypes.StorageClassStandard,
		osstypes.StorageClassIA,
		osstypes.StorageClassArchive,
		osstypes.StorageClassColdArchive,
		osstypes.StorageClassDeepColdArchive:
		return nil
	}
	return errors.NewError("validateStorageClass", errors.ErrInvalidInput).
		WithMessage(fmt.Sprintf("unknown storage class %q", class))
}

// ValidateObjectHeaders runs the metadata, content type, ACL and storage
// class checks.
func ValidateObjectHeaders(contentType string, metadata map[string]string, acl osstypes.ObjectACL, class osstypes.StorageClass) error {
	if err := ValidateContentType(contentType); err != nil {
		return err
	}
	if err := ValidateMetadata(metadata); err != nil {
		return err
	}
	if err := ValidateACL(acl); err != nil {
		return err
	}
	return ValidateStorageClass(class)
}

func isLowerAlnumOrHyphen(char rune) bool {
	return (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '-'
}

func isASCIIAlnum(char rune) bool {
	return (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')
}
