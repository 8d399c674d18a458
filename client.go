package oss

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/credentials"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/ossapi"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/retry"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/osstypes"
)

// Client represents an OSS client with configurable options.
// It is safe for concurrent use.
type Client struct {
	// api performs single OSS calls
	api ossapi.API

	// uploader picks simple or multipart upload
	uploader *upload.Uploader

	retryer  *retry.Retryer
	creds    aws.CredentialsProvider
	endpoint ossapi.Endpoint
	logger   *slog.Logger
	config   osstypes.ClientConfig

	// clock supplies signing timestamps for presigned URLs
	clock func() time.Time

	// mu protects fs
	mu sync.RWMutex

	// fs is the filesystem used by UploadFile
	fs billy.Filesystem
}

func defaultClientConfig() *osstypes.ClientConfig {
	return &osstypes.ClientConfig{
		MaxRetries:         3,
		RetryBaseDelay:     retry.DefaultBaseDelay,
		RetryMaxDelay:      retry.DefaultMaxDelay,
		Timeout:            0, // No timeout by default
		Concurrency:        multipart.DefaultConcurrency,
		PartSize:           multipart.DefaultPartSize,
		MultipartThreshold: upload.DefaultThreshold,
	}
}

// New creates a new OSS client with the provided options.
// A region is required. Without WithCredentials the access key is read from
// the ALIBABA_CLOUD_ACCESS_KEY_ID, ALIBABA_CLOUD_ACCESS_KEY_SECRET and
// ALIBABA_CLOUD_SECURITY_TOKEN environment variables when first needed.
//
// Example:
//
//	client, err := oss.New(
//	    oss.WithRegion("cn-hangzhou"),
//	    oss.WithMaxRetries(5),
//	)
func New(opts ...osstypes.Option) (*Client, error) {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}

	if err := validation.ValidateRegion(clientCfg.Region); err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	creds := clientCfg.Credentials
	if creds == nil {
		creds = credentials.NewDefaultChain()
	}
	if _, cached := creds.(*aws.CredentialsCache); !cached {
		creds = credentials.NewCachedProvider(creds)
	}
	clientCfg.Credentials = creds

	httpClient := clientCfg.HTTPClient
	if httpClient == nil {
		buildable := awshttp.NewBuildableClient()
		if clientCfg.Timeout > 0 {
			buildable = buildable.WithTimeout(clientCfg.Timeout)
		}
		httpClient = buildable
	}

	c := newClient(clientCfg)
	api, err := ossapi.New(ossapi.Config{
		Endpoint:    c.endpoint,
		Credentials: creds,
		HTTPClient:  httpClient,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, err
	}
	c.setAPI(api)

	c.logger.Debug("oss client created",
		"region", clientCfg.Region,
		"endpoint", clientCfg.Endpoint,
		"path_style", clientCfg.ForcePathStyle)

	return c, nil
}

// NewWithAPI creates a new OSS client with a custom ossapi.API implementation.
// This is primarily used for testing with mocked clients. The region and
// credentials options are only needed for presigning and SignRequest.
func NewWithAPI(api ossapi.API, opts ...osstypes.Option) *Client {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}

	c := newClient(clientCfg)
	c.setAPI(api)
	return c
}

func newClient(clientCfg *osstypes.ClientConfig) *Client {
	logger := clientCfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	filesystem := clientCfg.Filesystem
	if filesystem == nil {
		// Default to OS filesystem rooted at /
		filesystem = osfs.New("/")
	}

	maxAttempts := clientCfg.MaxRetries + 1
	if clientCfg.MaxRetries < 0 {
		maxAttempts = 1
	}

	return &Client{
		retryer: retry.New(retry.Policy{
			MaxAttempts: maxAttempts,
			BaseDelay:   clientCfg.RetryBaseDelay,
			MaxDelay:    clientCfg.RetryMaxDelay,
		}),
		creds: clientCfg.Credentials,
		endpoint: ossapi.Endpoint{
			Region:     clientCfg.Region,
			Custom:     clientCfg.Endpoint,
			PathStyle:  clientCfg.ForcePathStyle,
			DisableSSL: clientCfg.DisableSSL,
		},
		logger: logger,
		config: *clientCfg,
		clock:  time.Now,
		fs:     filesystem,
	}
}

func (c *Client) setAPI(api ossapi.API) {
	c.api = api
	c.uploader = upload.New(api, c.retryer, upload.Config{
		Threshold:   c.config.MultipartThreshold,
		Concurrency: c.config.Concurrency,
		Logger:      c.logger,
	})
}

// SetFilesystem sets the filesystem implementation for the client.
// This is useful for testing or when the filesystem needs to be changed after creation.
func (c *Client) SetFilesystem(filesystem billy.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = filesystem
}

func (c *Client) filesystem() billy.Filesystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}

// Region returns the configured region.
func (c *Client) Region() string {
	return c.config.Region
}

// Close releases resources held by the client. Idle connections belong to the
// HTTP client, so there is currently nothing to release.
func (c *Client) Close() error {
	return nil
}
