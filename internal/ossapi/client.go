package ossapi

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/signer"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 * 1024

// Config configures the HTTP implementation of API.
type Config struct {
	Endpoint    Endpoint
	Credentials aws.CredentialsProvider
	HTTPClient  aws.HTTPClient
	Logger      *slog.Logger

	// Clock supplies signing timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// Client implements API over HTTP.
type Client struct {
	endpoint Endpoint
	creds    aws.CredentialsProvider
	http     aws.HTTPClient
	logger   *slog.Logger
	clock    func() time.Time
}

var _ API = (*Client)(nil)

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint.Region == "" {
		return nil, errors.NewError("client initialization", errors.ErrInvalidRegion).WithMessage("region is required")
	}
	if cfg.Credentials == nil {
		return nil, errors.NewError("client initialization", errors.ErrInvalidCredentials).WithMessage("credentials provider is required")
	}

	c := &Client{
		endpoint: cfg.Endpoint,
		creds:    cfg.Credentials,
		http:     cfg.HTTPClient,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c, nil
}

type request struct {
	op     string
	method string
	bucket string
	key    string
	query  []queryParam
	header http.Header
	body   []byte
}

type response struct {
	status    int
	header    http.Header
	body      []byte
	requestID string
}

// send performs one attempt: resolve, sign, transmit, classify.
func (c *Client) send(ctx context.Context, r *request) (*response, error) {
	u, err := c.endpoint.URL(r.bucket, r.key)
	if err != nil {
		return nil, err
	}
	u.RawQuery = encodeQuery(r.query)

	creds, err := c.creds.Retrieve(ctx)
	if err != nil {
		return nil, errors.NewObjectError(r.op, r.bucket, r.key, fmt.Errorf("retrieve credentials: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), bytes.NewReader(r.body))
	if err != nil {
		return nil, errors.NewObjectError(r.op, r.bucket, r.key, err)
	}
	for k, vs := range r.header {
		req.Header[k] = vs
	}

	if err := signer.SignHTTP(req, creds, c.endpoint.Region, c.clock(), signer.HashPayload(r.body)); err != nil {
		return nil, errors.NewObjectError(r.op, r.bucket, r.key, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.NewObjectError(r.op, r.bucket, r.key, ctxErr)
		}
		c.logger.DebugContext(ctx, "request failed",
			"operation", r.op,
			"method", r.method,
			"host", u.Host,
			"path", u.Path,
			"duration", time.Since(start),
			"error", err)
		return nil, errors.NewObjectError(r.op, r.bucket, r.key, &errors.TransportError{Err: err})
	}
	defer resp.Body.Close()

	out := &response{
		status:    resp.StatusCode,
		header:    resp.Header,
		requestID: resp.Header.Get(headerRequestID),
	}

	c.logger.DebugContext(ctx, "request completed",
		"operation", r.op,
		"method", r.method,
		"host", u.Host,
		"path", u.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", out.requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.NewObjectError(r.op, r.bucket, r.key, parseServiceError(resp.StatusCode, resp.Header, body))
	}

	out.body, err = io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.NewObjectError(r.op, r.bucket, r.key, ctxErr)
		}
		return nil, errors.NewObjectError(r.op, r.bucket, r.key, &errors.TransportError{Err: err})
	}
	return out, nil
}

// PutObject uploads an object in a single request.
func (c *Client) PutObject(ctx context.Context, in *PutObjectInput) (*PutObjectOutput, error) {
	h := http.Header{}
	setObjectHeaders(h, in.ObjectHeaders)

	resp, err := c.send(ctx, &request{
		op:     "putObject",
		method: http.MethodPut,
		bucket: in.Bucket,
		key:    in.Key,
		header: h,
		body:   in.Body,
	})
	if err != nil {
		return nil, err
	}

	crc, err := parseCRC64(resp.header)
	if err != nil {
		return nil, errors.NewObjectError("putObject", in.Bucket, in.Key, err)
	}
	return &PutObjectOutput{
		ETag:      trimETag(resp.header.Get(headerETag)),
		CRC64:     crc,
		RequestID: resp.requestID,
	}, nil
}

// InitiateMultipartUpload starts a multipart upload.
func (c *Client) InitiateMultipartUpload(ctx context.Context, in *InitiateMultipartUploadInput) (*InitiateMultipartUploadOutput, error) {
	h := http.Header{}
	setObjectHeaders(h, in.ObjectHeaders)

	resp, err := c.send(ctx, &request{
		op:     "initiateMultipartUpload",
		method: http.MethodPost,
		bucket: in.Bucket,
		key:    in.Key,
		query:  []queryParam{{key: "uploads", bare: true}},
		header: h,
	})
	if err != nil {
		return nil, err
	}

	var result initiateResult
	if err := decodeXML(resp.body, &result); err != nil {
		return nil, errors.NewObjectError("initiateMultipartUpload", in.Bucket, in.Key, err)
	}
	if result.UploadID == "" {
		return nil, errors.NewObjectError("initiateMultipartUpload", in.Bucket, in.Key,
			stderrors.New("response carries no upload id"))
	}
	return &InitiateMultipartUploadOutput{
		Bucket:    result.Bucket,
		Key:       result.Key,
		UploadID:  result.UploadID,
		RequestID: resp.requestID,
	}, nil
}

// UploadPart uploads one part.
func (c *Client) UploadPart(ctx context.Context, in *UploadPartInput) (*UploadPartOutput, error) {
	resp, err := c.send(ctx, &request{
		op:     "uploadPart",
		method: http.MethodPut,
		bucket: in.Bucket,
		key:    in.Key,
		query: []queryParam{
			{key: "partNumber", value: strconv.Itoa(int(in.PartNumber))},
			{key: "uploadId", value: in.UploadID},
		},
		body: in.Body,
	})
	if err != nil {
		return nil, err
	}

	crc, err := parseCRC64(resp.header)
	if err != nil {
		return nil, errors.NewObjectError("uploadPart", in.Bucket, in.Key, err)
	}
	return &UploadPartOutput{
		ETag:      trimETag(resp.header.Get(headerETag)),
		CRC64:     crc,
		RequestID: resp.requestID,
	}, nil
}

// CompleteMultipartUpload assembles the parts into the final object.
func (c *Client) CompleteMultipartUpload(ctx context.Context, in *CompleteMultipartUploadInput) (*CompleteMultipartUploadOutput, error) {
	body, err := encodeCompleteRequest(in.Parts)
	if err != nil {
		return nil, errors.NewObjectError("completeMultipartUpload", in.Bucket, in.Key, err)
	}

	resp, err := c.send(ctx, &request{
		op:     "completeMultipartUpload",
		method: http.MethodPost,
		bucket: in.Bucket,
		key:    in.Key,
		query:  []queryParam{{key: "uploadId", value: in.UploadID}},
		header: http.Header{"Content-Type": {"application/xml"}},
		body:   body,
	})
	if err != nil {
		return nil, err
	}

	crc, err := parseCRC64(resp.header)
	if err != nil {
		return nil, errors.NewObjectError("completeMultipartUpload", in.Bucket, in.Key, err)
	}

	out := &CompleteMultipartUploadOutput{
		Bucket:    in.Bucket,
		Key:       in.Key,
		ETag:      trimETag(resp.header.Get(headerETag)),
		CRC64:     crc,
		RequestID: resp.requestID,
	}
	if len(bytes.TrimSpace(resp.body)) > 0 {
		var result completeResult
		if err := decodeXML(resp.body, &result); err != nil {
			return nil, errors.NewObjectError("completeMultipartUpload", in.Bucket, in.Key, err)
		}
		out.Location = result.Location
		if result.ETag != "" {
			out.ETag = trimETag(result.ETag)
		}
	}
	return out, nil
}

// AbortMultipartUpload discards the upload.
func (c *Client) AbortMultipartUpload(ctx context.Context, in *AbortMultipartUploadInput) (*AbortMultipartUploadOutput, error) {
	resp, err := c.send(ctx, &request{
		op:     "abortMultipartUpload",
		method: http.MethodDelete,
		bucket: in.Bucket,
		key:    in.Key,
		query:  []queryParam{{key: "uploadId", value: in.UploadID}},
	})
	if err != nil {
		return nil, err
	}
	return &AbortMultipartUploadOutput{RequestID: resp.requestID}, nil
}
