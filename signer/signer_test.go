package signer

import (
	"errors"
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

var (
	testCreds = aws.Credentials{
		AccessKeyID:     "LTAI5tExampleKeyId",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	}
	testTime   = time.Date(2023, 12, 3, 12, 0, 0, 0, time.UTC)
	testRegion = "cn-hangzhou"
)

const helloOSSHash = "20d4b1baac88cd381739010644458df5f48b03cd137f43bc20a6e018fbb7baa3"

func TestDeriveKey_KnownVector(t *testing.T) {
	st, err := NewSigningTime(testTime)
	require.NoError(t, err)

	key := DeriveKey(testCreds.SecretAccessKey, testRegion, st)
	assert.Equal(t, "78e9705b62e2c50a2d16958556ebed0deceb9b5d5b6853e8954d7d89a06a3968", hexString(key))

	Wipe(key)
	assert.Equal(t, make([]byte, 32), key)
}

func TestSign_HeaderMode_KnownVectors(t *testing.T) {
	tests := []struct {
		name          string
		ctx           Context
		creds         aws.Credentials
		wantCanonical string
		wantSigned    string
		wantSignature string
	}{
		{
			name: "put with body hash",
			ctx: Context{
				Method:      "PUT",
				Path:        "/exampleobject",
				Headers:     http.Header{"Content-Type": {"text/plain"}},
				Host:        "examplebucket.oss-cn-hangzhou.aliyuncs.com",
				PayloadHash: helloOSSHash,
				Time:        testTime,
				Region:      testRegion,
			},
			creds: testCreds,
			wantCanonical: "PUT\n/exampleobject\n\n" +
				"content-type:text/plain\n" +
				"host:examplebucket.oss-cn-hangzhou.aliyuncs.com\n" +
				"x-oss-content-sha256:" + helloOSSHash + "\n" +
				"x-oss-date:20231203T120000Z\n\n" +
				"content-type;host;x-oss-content-sha256;x-oss-date\n" +
				helloOSSHash,
			wantSigned:    "content-type;host;x-oss-content-sha256;x-oss-date",
			wantSignature: "25e5b493449a6522ef852c05f84f2e8938e130c4f31a6f1d36ea0be14b098a5d",
		},
		{
			name: "upload part with token and encoded path",
			ctx: Context{
				Method: "PUT",
				Path:   "/big file.bin",
				Query: url.Values{
					"uploadId":   {"0004B9894A22E5B1888A1E29F823****"},
					"partNumber": {"1"},
				},
				Host:        "examplebucket.oss-cn-hangzhou.aliyuncs.com",
				PayloadHash: UnsignedPayload,
				Time:        testTime,
				Region:      testRegion,
			},
			creds: aws.Credentials{
				AccessKeyID:     testCreds.AccessKeyID,
				SecretAccessKey: testCreds.SecretAccessKey,
				SessionToken:    "sts-token",
			},
			wantCanonical: "PUT\n/big%20file.bin\n" +
				"partNumber=1&uploadId=0004B9894A22E5B1888A1E29F823%2A%2A%2A%2A\n" +
				"host:examplebucket.oss-cn-hangzhou.aliyuncs.com\n" +
				"x-oss-content-sha256:UNSIGNED-PAYLOAD\n" +
				"x-oss-date:20231203T120000Z\n" +
				"x-oss-security-token:sts-token\n\n" +
				"host;x-oss-content-sha256;x-oss-date;x-oss-security-token\n" +
				"UNSIGNED-PAYLOAD",
			wantSigned:    "host;x-oss-content-sha256;x-oss-date;x-oss-security-token",
			wantSignature: "678e26e7e55a7c6dd683d74eb74433eac1371588b41f1403c0f947b161246456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aug, err := Sign(&tt.ctx, tt.creds)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCanonical, aug.CanonicalRequest)
			assert.Equal(t, tt.wantSigned, aug.SignedHeaders)
			assert.Equal(t, tt.wantSignature, aug.Signature)
			assert.Equal(t,
				"OSS4-HMAC-SHA256 Credential=LTAI5tExampleKeyId/20231203/cn-hangzhou/oss/aliyun_v4_request, "+
					"SignedHeaders="+tt.wantSigned+", Signature="+tt.wantSignature,
				aug.Headers.Get(AuthorizationHeader))
			assert.Equal(t, "20231203T120000Z", aug.Headers.Get(DateKey))
			assert.Equal(t, tt.creds.SessionToken, aug.Headers.Get(SecurityTokenKey))
			assert.Empty(t, aug.Query)
			assert.True(t, strings.HasPrefix(aug.StringToSign,
				"OSS4-HMAC-SHA256\n20231203T120000Z\n20231203/cn-hangzhou/oss/aliyun_v4_request\n"))
		})
	}
}

func TestSign_Deterministic(t *testing.T) {
	ctx := Context{
		Method:      "PUT",
		Path:        "/exampleobject",
		Headers:     http.Header{"Content-Type": {"text/plain"}},
		Host:        "examplebucket.oss-cn-hangzhou.aliyuncs.com",
		PayloadHash: helloOSSHash,
		Time:        testTime,
		Region:      testRegion,
	}

	first, err := Sign(&ctx, testCreds)
	require.NoError(t, err)
	for range 10 {
		again, err := Sign(&ctx, testCreds)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSign_OrderIndependent(t *testing.T) {
	a := Context{
		Method: "POST",
		Path:   "/dir/object.bin",
		Query:  url.Values{"a": {"1", "2"}, "z": {"9"}, "m": {""}},
		Headers: http.Header{
			"X-Oss-Meta-Author":   {"alice"},
			"Content-Type":        {"application/xml"},
			"x-oss-storage-class": {"Standard"},
		},
		Host:        "bucket.oss-cn-hangzhou.aliyuncs.com",
		PayloadHash: EmptyPayloadHash,
		Time:        testTime,
		Region:      testRegion,
	}
	b := a
	b.Query = url.Values{"z": {"9"}, "m": {""}, "a": {"2", "1"}}
	b.Headers = http.Header{
		"x-oss-storage-class": {" Standard "},
		"Content-Type":        {"application/xml"},
		"X-Oss-Meta-Author":   {"alice"},
	}

	sigA, err := Sign(&a, testCreds)
	require.NoError(t, err)
	sigB, err := Sign(&b, testCreds)
	require.NoError(t, err)

	assert.Equal(t, sigA.Signature, sigB.Signature)
	assert.Contains(t, sigA.CanonicalRequest, "\na=1&a=2&m=&z=9\n")
}

func TestCanonicalHeaders_Host(t *testing.T) {
	tests := []struct {
		name          string
		headers       http.Header
		host          string
		wantCanonical string
		wantSigned    string
	}{
		{
			name:          "explicit host",
			headers:       http.Header{"X-Oss-Date": {"20231203T120000Z"}},
			host:          "b.example.com",
			wantCanonical: "host:b.example.com\nx-oss-date:20231203T120000Z\n",
			wantSigned:    "host;x-oss-date",
		},
		{
			name:          "host from headers",
			headers:       http.Header{"Host": {" b.example.com "}, "X-Oss-Date": {"20231203T120000Z"}},
			wantCanonical: "host:b.example.com\nx-oss-date:20231203T120000Z\n",
			wantSigned:    "host;x-oss-date",
		},
		{
			name:          "explicit host wins",
			headers:       http.Header{"host": {"other.example.com"}},
			host:          "b.example.com",
			wantCanonical: "host:b.example.com\n",
			wantSigned:    "host",
		},
		{
			name:          "no host",
			headers:       http.Header{"X-Oss-Date": {"20231203T120000Z"}},
			wantCanonical: "x-oss-date:20231203T120000Z\n",
			wantSigned:    "x-oss-date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, signed := CanonicalHeaders(tt.headers, tt.host)
			assert.Equal(t, tt.wantCanonical, canonical)
			assert.Equal(t, tt.wantSigned, signed)
		})
	}
}

func TestSign_HostHeaderSigned(t *testing.T) {
	withField := Context{
		Method:      "GET",
		Path:        "/k",
		Host:        "bucket.oss-cn-hangzhou.aliyuncs.com",
		PayloadHash: EmptyPayloadHash,
		Time:        testTime,
		Region:      testRegion,
	}
	withHeader := withField
	withHeader.Host = ""
	withHeader.Headers = http.Header{"Host": {"bucket.oss-cn-hangzhou.aliyuncs.com"}}

	a, err := Sign(&withField, testCreds)
	require.NoError(t, err)
	b, err := Sign(&withHeader, testCreds)
	require.NoError(t, err)

	assert.Equal(t, a.Signature, b.Signature)
	assert.Contains(t, b.SignedHeaders, "host")
}

func TestSign_CaseVariantsMerged(t *testing.T) {
	ctx := Context{
		Method:  "GET",
		Path:    "/k",
		Headers: http.Header{"X-Oss-Meta-A": {"1"}, "x-oss-meta-a": {"2"}},
		Time:    testTime,
		Region:  testRegion,
	}

	aug, err := Sign(&ctx, testCreds)
	require.NoError(t, err)
	assert.Contains(t, aug.CanonicalRequest, "x-oss-meta-a:1,2\n")
	assert.Equal(t, 1, strings.Count(aug.SignedHeaders, "x-oss-meta-a"))
}

func TestSign_SignerOwnedHeadersReplaced(t *testing.T) {
	ctx := Context{
		Method:      "GET",
		Path:        "/k",
		Headers:     http.Header{"X-Oss-Date": {"19990101T000000Z"}, "Authorization": {"stale"}},
		PayloadHash: EmptyPayloadHash,
		Time:        testTime,
		Region:      testRegion,
	}

	aug, err := Sign(&ctx, testCreds)
	require.NoError(t, err)
	assert.NotContains(t, aug.CanonicalRequest, "19990101")
	assert.NotContains(t, aug.CanonicalRequest, "stale")
}

func TestSign_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ctx     Context
		creds   aws.Credentials
		wantErr error
	}{
		{
			name:    "empty access key id",
			ctx:     Context{Method: "GET", Time: testTime, Region: testRegion},
			creds:   aws.Credentials{SecretAccessKey: "secret"},
			wantErr: osserrors.ErrInvalidCredentials,
		},
		{
			name:    "empty secret",
			ctx:     Context{Method: "GET", Time: testTime, Region: testRegion},
			creds:   aws.Credentials{AccessKeyID: "id"},
			wantErr: osserrors.ErrInvalidCredentials,
		},
		{
			name:    "secret with newline",
			ctx:     Context{Method: "GET", Time: testTime, Region: testRegion},
			creds:   aws.Credentials{AccessKeyID: "id", SecretAccessKey: "sec\nret"},
			wantErr: osserrors.ErrInvalidCredentials,
		},
		{
			name:    "zero time",
			ctx:     Context{Method: "GET", Region: testRegion},
			creds:   testCreds,
			wantErr: osserrors.ErrClockSkew,
		},
		{
			name:    "year out of range",
			ctx:     Context{Method: "GET", Time: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC), Region: testRegion},
			creds:   testCreds,
			wantErr: osserrors.ErrClockSkew,
		},
		{
			name:    "missing region",
			ctx:     Context{Method: "GET", Time: testTime},
			creds:   testCreds,
			wantErr: osserrors.ErrInvalidRegion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sign(&tt.ctx, tt.creds)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			if tt.creds.SecretAccessKey != "" {
				assert.NotContains(t, err.Error(), tt.creds.SecretAccessKey)
			}
		})
	}
}

func TestSignHTTP(t *testing.T) {
	req, err := http.NewRequest(http.MethodPut, "https://examplebucket.oss-cn-hangzhou.aliyuncs.com/exampleobject", strings.NewReader("Hello OSS"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")

	require.NoError(t, SignHTTP(req, testCreds, testRegion, testTime, HashPayload([]byte("Hello OSS"))))

	assert.Equal(t, helloOSSHash, req.Header.Get(ContentSHAKey))
	assert.Equal(t, "20231203T120000Z", req.Header.Get(DateKey))
	assert.Equal(t,
		"OSS4-HMAC-SHA256 Credential=LTAI5tExampleKeyId/20231203/cn-hangzhou/oss/aliyun_v4_request, "+
			"SignedHeaders=content-type;host;x-oss-content-sha256;x-oss-date, "+
			"Signature=25e5b493449a6522ef852c05f84f2e8938e130c4f31a6f1d36ea0be14b098a5d",
		req.Header.Get(AuthorizationHeader))

	// Re-signing replaces the previous signature headers.
	later := testTime.Add(time.Minute)
	require.NoError(t, SignHTTP(req, testCreds, testRegion, later, HashPayload([]byte("Hello OSS"))))
	assert.Equal(t, "20231203T120100Z", req.Header.Get(DateKey))
	assert.Len(t, req.Header.Values(AuthorizationHeader), 1)
}

func TestCanonicalURI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "/"},
		{in: "/", want: "/"},
		{in: "/bucket/key.txt", want: "/bucket/key.txt"},
		{in: "/bucket/hello world.txt", want: "/bucket/hello%20world.txt"},
		{in: "/bucket/file name+test=value&other", want: "/bucket/file%20name%2Btest%3Dvalue%26other"},
		{in: "/bucket/中文.txt", want: "/bucket/%E4%B8%AD%E6%96%87.txt"},
		{in: "no-leading-slash", want: "/no-leading-slash"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalURI(tt.in))
		})
	}
}

func TestCanonicalQuery(t *testing.T) {
	assert.Equal(t, "", CanonicalQuery(nil))
	assert.Equal(t, "a=2&m=3&z=1", CanonicalQuery(url.Values{"z": {"1"}, "a": {"2"}, "m": {"3"}}))
	assert.Equal(t, "prefix=a%2Fb&uploads=", CanonicalQuery(url.Values{"uploads": {""}, "prefix": {"a/b"}}))
}

func hexString(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&15])
	}
	return string(out)
}
