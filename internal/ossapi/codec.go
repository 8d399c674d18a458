package ossapi

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/crc64"
)

// Response headers read by the codec.
const (
	headerRequestID = "X-Oss-Request-Id"
	headerCRC64     = "X-Oss-Hash-Crc64ecma"
	headerETag      = "ETag"

	headerStorageClass = "X-Oss-Storage-Class"
	headerObjectACL    = "X-Oss-Object-Acl"
	metaPrefix         = "X-Oss-Meta-"
)

type initiateResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

type completeRequest struct {
	XMLName xml.Name       `xml:"CompleteMultipartUpload"`
	Parts   []completePart `xml:"Part"`
}

type completePart struct {
	PartNumber int32  `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

type completeResult struct {
	XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
	Location string   `xml:"Location"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	ETag     string   `xml:"ETag"`
}

type errorResponse struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	RequestID string   `xml:"RequestId"`
	HostID    string   `xml:"HostId"`
}

func encodeCompleteRequest(parts []CompletedPart) ([]byte, error) {
	req := completeRequest{Parts: make([]completePart, len(parts))}
	for i, p := range parts {
		req.Parts[i] = completePart{PartNumber: p.PartNumber, ETag: quoteETag(p.ETag)}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(req); err != nil {
		return nil, fmt.Errorf("encode CompleteMultipartUpload: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeXML(body []byte, v any) error {
	if err := xml.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseServiceError builds a ServiceError from a non-2xx response. A body
// that is not an OSS error document becomes the message.
func parseServiceError(status int, header http.Header, body []byte) *errors.ServiceError {
	svcErr := &errors.ServiceError{
		StatusCode: status,
		Code:       errors.CodeUnknown,
		RequestID:  header.Get(headerRequestID),
	}

	var doc errorResponse
	if len(body) > 0 && xml.Unmarshal(body, &doc) == nil {
		if doc.Code != "" {
			svcErr.Code = errors.ErrorCode(doc.Code)
		}
		svcErr.Message = doc.Message
		svcErr.HostID = doc.HostID
		if doc.RequestID != "" {
			svcErr.RequestID = doc.RequestID
		}
		return svcErr
	}

	svcErr.Message = strings.TrimSpace(string(body))
	if svcErr.Message == "" {
		svcErr.Message = http.StatusText(status)
	}
	return svcErr
}

// parseCRC64 returns the service checksum header, or nil when it is absent.
func parseCRC64(header http.Header) (*uint64, error) {
	v := header.Get(headerCRC64)
	if v == "" {
		return nil, nil
	}
	crc, err := crc64.ParseHeader(v)
	if err != nil {
		return nil, err
	}
	return &crc, nil
}

func trimETag(etag string) string {
	return strings.Trim(etag, `"`)
}

func quoteETag(etag string) string {
	if strings.HasPrefix(etag, `"`) {
		return etag
	}
	return `"` + etag + `"`
}

func setObjectHeaders(h http.Header, oh ObjectHeaders) {
	if oh.ContentType != "" {
		h.Set("Content-Type", oh.ContentType)
	}
	if oh.StorageClass != "" {
		h.Set(headerStorageClass, string(oh.StorageClass))
	}
	if oh.ACL != "" {
		h.Set(headerObjectACL, string(oh.ACL))
	}
	for k, v := range oh.Metadata {
		h.Set(metaPrefix+k, v)
	}
}
