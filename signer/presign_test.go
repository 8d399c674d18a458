package signer

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	osserrors "github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
)

func TestSign_PresignKnownVectors(t *testing.T) {
	tokenCreds := testCreds
	tokenCreds.SessionToken = "sts-token"

	tests := []struct {
		name          string
		ctx           Context
		creds         aws.Credentials
		wantSigned    string
		wantSignature string
	}{
		{
			name: "get object",
			ctx: Context{
				Method:  "GET",
				Path:    "/docs/report.pdf",
				Host:    "my-bucket.oss-cn-hangzhou.aliyuncs.com",
				Time:    testTime,
				Region:  testRegion,
				Mode:    ModePresign,
				Expires: time.Hour,
			},
			creds:         testCreds,
			wantSigned:    "host",
			wantSignature: "a4de69719a5c795da5bf35ec72793abc8d91acb1401aab489e8592a25c38d0e9",
		},
		{
			name: "put object with content type and token",
			ctx: Context{
				Method:  "PUT",
				Path:    "/upload.bin",
				Headers: http.Header{"Content-Type": {"application/octet-stream"}},
				Host:    "my-bucket.oss-cn-hangzhou.aliyuncs.com",
				Time:    testTime,
				Region:  testRegion,
				Mode:    ModePresign,
				Expires: 10 * time.Minute,
			},
			creds:         tokenCreds,
			wantSigned:    "content-type;host",
			wantSignature: "76fb8a8fbf2de4d1658c578686ae16bef169a050494267c8071fbe5cfb19ba8d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aug, err := Sign(&tt.ctx, tt.creds)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSignature, aug.Signature)
			assert.Equal(t, tt.wantSigned, aug.SignedHeaders)
			assert.Empty(t, aug.Headers)
			assert.Equal(t, tt.wantSignature, aug.Query.Get(SignatureKey))
			assert.Equal(t, Algorithm, aug.Query.Get(SignatureVersionKey))
			assert.Equal(t, "20231203T120000Z", aug.Query.Get(DateKey))
			assert.Equal(t, tt.creds.SessionToken, aug.Query.Get(SecurityTokenKey))
			assert.True(t, strings.HasSuffix(aug.CanonicalRequest, "\n"+UnsignedPayload))
		})
	}
}

func TestPresignURL(t *testing.T) {
	base, err := url.Parse("https://my-bucket.oss-cn-hangzhou.aliyuncs.com/docs/report.pdf")
	require.NoError(t, err)

	signed, err := PresignURL(base, &Context{
		Method:  http.MethodGet,
		Time:    testTime,
		Region:  testRegion,
		Expires: time.Hour,
	}, testCreds)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(signed, "https://my-bucket.oss-cn-hangzhou.aliyuncs.com/docs/report.pdf?"))
	assert.NotContains(t, signed, testCreds.SecretAccessKey)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "a4de69719a5c795da5bf35ec72793abc8d91acb1401aab489e8592a25c38d0e9", q.Get(SignatureKey))
	assert.Equal(t, "3600", q.Get(ExpiresKey))
	assert.Equal(t, testCreds.AccessKeyID+"/20231203/cn-hangzhou/oss/aliyun_v4_request", q.Get(CredentialKey))
	assert.Equal(t, "host", q.Get(SignedHeadersKey))
	assert.True(t, strings.HasSuffix(signed, "&"+SignatureKey+"="+q.Get(SignatureKey)))
}

func TestPresignURL_KeepsExistingQuery(t *testing.T) {
	base, err := url.Parse("https://b.oss-cn-hangzhou.aliyuncs.com/k?response-content-type=text%2Fplain")
	require.NoError(t, err)

	signed, err := PresignURL(base, &Context{
		Method:  http.MethodGet,
		Time:    testTime,
		Region:  testRegion,
		Expires: time.Minute,
	}, testCreds)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", u.Query().Get("response-content-type"))
	assert.Len(t, u.Query()[SignatureKey], 1)
}

func TestSign_PresignExpiry(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Duration
		wantErr bool
	}{
		{name: "zero", expires: 0, wantErr: true},
		{name: "negative", expires: -time.Second, wantErr: true},
		{name: "one second", expires: time.Second},
		{name: "maximum", expires: MaxPresignExpiry},
		{name: "over maximum", expires: MaxPresignExpiry + time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sign(&Context{
				Method:  http.MethodGet,
				Path:    "/k",
				Host:    "b.oss-cn-hangzhou.aliyuncs.com",
				Time:    testTime,
				Region:  testRegion,
				Mode:    ModePresign,
				Expires: tt.expires,
			}, testCreds)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, osserrors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}
