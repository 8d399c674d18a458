package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"

	osserrors "github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
)

// Environment variables read by EnvProvider.
const (
	EnvAccessKeyID     = "ALIBABA_CLOUD_ACCESS_KEY_ID"
	EnvAccessKeySecret = "ALIBABA_CLOUD_ACCESS_KEY_SECRET"
	EnvSecurityToken   = "ALIBABA_CLOUD_SECURITY_TOKEN"
)

// Source names reported in aws.Credentials.Source.
const (
	StaticSource = "OSSStaticCredentials"
	EnvSource    = "OSSEnvCredentials"
)

// ErrNoCredentials is returned when no provider in a chain yields credentials.
var ErrNoCredentials = errors.New("oss: no credentials found")

// NewStaticProvider returns a provider for a fixed access key. token may be
// empty.
func NewStaticProvider(accessKeyID, secret, token string) aws.CredentialsProvider {
	p := awscreds.NewStaticCredentialsProvider(accessKeyID, secret, token)
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		creds, err := p.Retrieve(ctx)
		if err != nil {
			return aws.Credentials{}, &osserrors.AuthError{Reason: osserrors.AuthInvalidCredentials, Err: err}
		}
		creds.Source = StaticSource
		return creds, nil
	})
}

// EnvProvider reads credentials from the ALIBABA_CLOUD_* environment
// variables on every Retrieve.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

var _ aws.CredentialsProvider = (*EnvProvider)(nil)

// NewEnvProvider creates an EnvProvider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// Retrieve returns the environment credentials.
func (p *EnvProvider) Retrieve(context.Context) (aws.Credentials, error) {
	id, _ := p.lookup(EnvAccessKeyID)
	secret, _ := p.lookup(EnvAccessKeySecret)
	id = strings.TrimSpace(id)
	secret = strings.TrimSpace(secret)

	if id == "" || secret == "" {
		return aws.Credentials{}, fmt.Errorf("%w: %s and %s must both be set",
			ErrNoCredentials, EnvAccessKeyID, EnvAccessKeySecret)
	}

	token, _ := p.lookup(EnvSecurityToken)
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    strings.TrimSpace(token),
		Source:          EnvSource,
	}, nil
}

// ChainProvider tries each provider in order and returns the first success.
type ChainProvider struct {
	providers []aws.CredentialsProvider
}

var _ aws.CredentialsProvider = (*ChainProvider)(nil)

// NewChainProvider creates a chain. Nil providers are skipped.
func NewChainProvider(providers ...aws.CredentialsProvider) *ChainProvider {
	chain := make([]aws.CredentialsProvider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			chain = append(chain, p)
		}
	}
	return &ChainProvider{providers: chain}
}

// Retrieve returns the first credentials any provider yields. If all fail
// the errors are joined under ErrNoCredentials.
func (c *ChainProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	errs := make([]error, 0, len(c.providers)+1)
	errs = append(errs, ErrNoCredentials)

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return aws.Credentials{}, err
		}
		creds, err := p.Retrieve(ctx)
		if err == nil && creds.HasKeys() {
			return creds, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return aws.Credentials{}, errors.Join(errs...)
}

// NewDefaultChain returns the chain used when a client is built without
// explicit credentials. Only the environment is consulted.
func NewDefaultChain() *ChainProvider {
	return NewChainProvider(NewEnvProvider())
}

// NewCachedProvider wraps p so credentials are reused until they expire.
func NewCachedProvider(p aws.CredentialsProvider) *aws.CredentialsCache {
	if cache, ok := p.(*aws.CredentialsCache); ok {
		return cache
	}
	return aws.NewCredentialsCache(p)
}
