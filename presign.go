package oss

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"

	osserrors "github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/osstypes"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/signer"
)

// PresignGetObject returns a URL that downloads the object without further
// credentials until it expires.
//
// Example:
//
//	url, err := client.PresignGetObject(ctx, "my-bucket", "report.pdf",
//	    oss.WithExpires(15*time.Minute))
func (c *Client) PresignGetObject(
	ctx context.Context,
	bucket, key string,
	opts ...osstypes.PresignOption,
) (string, error) {
	return c.presign(ctx, "presignGetObject", http.MethodGet, bucket, key, opts)
}

// PresignPutObject returns a URL that uploads the object with a single PUT
// without further credentials until it expires. With WithPresignContentType
// the upload must send the same Content-Type.
func (c *Client) PresignPutObject(
	ctx context.Context,
	bucket, key string,
	opts ...osstypes.PresignOption,
) (string, error) {
	return c.presign(ctx, "presignPutObject", http.MethodPut, bucket, key, opts)
}

func (c *Client) presign(
	ctx context.Context,
	op, method, bucket, key string,
	opts []osstypes.PresignOption,
) (string, error) {
	if err := validateObject(bucket, key); err != nil {
		return "", err
	}

	config := &osstypes.PresignOptionConfig{
		Expires: signer.DefaultPresignExpiry,
	}
	for _, opt := range opts {
		opt(config)
	}

	creds, err := c.retrieveCredentials(ctx, op)
	if err != nil {
		return "", err
	}

	base, err := c.endpoint.URL(bucket, key)
	if err != nil {
		return "", osserrors.NewObjectError(op, bucket, key, err)
	}

	headers := http.Header{}
	if config.ContentType != "" {
		headers.Set("Content-Type", config.ContentType)
	}

	signed, err := signer.PresignURL(base, &signer.Context{
		Method:  method,
		Headers: headers,
		Time:    c.clock(),
		Region:  c.config.Region,
		Expires: config.Expires,
	}, creds)
	if err != nil {
		return "", osserrors.NewObjectError(op, bucket, key, err)
	}
	return signed, nil
}

// SignRequest signs req in place with the client's credentials and region,
// adding the Authorization, x-oss-date, x-oss-content-sha256 and, for
// temporary credentials, x-oss-security-token headers. payloadHash is the hex
// SHA-256 of the body or signer.UnsignedPayload.
func (c *Client) SignRequest(ctx context.Context, req *http.Request, payloadHash string) error {
	creds, err := c.retrieveCredentials(ctx, "signRequest")
	if err != nil {
		return err
	}
	if err := signer.SignHTTP(req, creds, c.config.Region, c.clock(), payloadHash); err != nil {
		return osserrors.NewError("signRequest", err)
	}
	return nil
}

func (c *Client) retrieveCredentials(ctx context.Context, op string) (aws.Credentials, error) {
	if c.creds == nil {
		return aws.Credentials{}, osserrors.NewError(op, osserrors.ErrInvalidCredentials).
			WithMessage("no credentials provider configured")
	}
	creds, err := c.creds.Retrieve(ctx)
	if err != nil {
		return aws.Credentials{}, osserrors.NewError(op, err).WithMessage("retrieve credentials")
	}
	return creds, nil
}
