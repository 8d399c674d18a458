package ossapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
)

func TestEndpoint_URL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		bucket   string
		key      string
		want     string
	}{
		{
			name:     "virtual hosted",
			endpoint: Endpoint{Region: "cn-hangzhou"},
			bucket:   "my-bucket",
			key:      "path/to/file.txt",
			want:     "https://my-bucket.oss-cn-hangzhou.aliyuncs.com/path/to/file.txt",
		},
		{
			name:     "path style",
			endpoint: Endpoint{Region: "cn-hangzhou", PathStyle: true},
			bucket:   "my-bucket",
			key:      "path/to/file.txt",
			want:     "https://oss-cn-hangzhou.aliyuncs.com/my-bucket/path/to/file.txt",
		},
		{
			name:     "path style bucket only",
			endpoint: Endpoint{Region: "cn-hangzhou", PathStyle: true},
			bucket:   "my-bucket",
			want:     "https://oss-cn-hangzhou.aliyuncs.com/my-bucket/",
		},
		{
			name:     "no bucket",
			endpoint: Endpoint{Region: "cn-hangzhou"},
			want:     "https://oss-cn-hangzhou.aliyuncs.com/",
		},
		{
			name:     "disable ssl",
			endpoint: Endpoint{Region: "cn-beijing", DisableSSL: true},
			bucket:   "b1",
			key:      "k",
			want:     "http://b1.oss-cn-beijing.aliyuncs.com/k",
		},
		{
			name:     "custom host with scheme",
			endpoint: Endpoint{Region: "cn-hangzhou", Custom: "http://127.0.0.1:9000/"},
			bucket:   "my-bucket",
			key:      "k",
			want:     "http://127.0.0.1:9000/k",
		},
		{
			name:     "custom host without scheme",
			endpoint: Endpoint{Region: "cn-hangzhou", Custom: "custom.oss.example.com"},
			bucket:   "my-bucket",
			key:      "k",
			want:     "https://custom.oss.example.com/k",
		},
		{
			name:     "encoded key",
			endpoint: Endpoint{Region: "cn-hangzhou"},
			bucket:   "my-bucket",
			key:      "dir/hello world+1.txt",
			want:     "https://my-bucket.oss-cn-hangzhou.aliyuncs.com/dir/hello%20world%2B1.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := tt.endpoint.URL(tt.bucket, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestEndpoint_URL_InvalidCustom(t *testing.T) {
	for _, custom := range []string{"http://", "https:///", "http:///path", "/"} {
		t.Run(custom, func(t *testing.T) {
			u, err := Endpoint{Region: "cn-hangzhou", Custom: custom}.URL("b", "k")
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
			assert.Nil(t, u)
		})
	}
}

func TestEndpoint_URL_CustomTrailingSlash(t *testing.T) {
	u, err := Endpoint{Custom: "http://127.0.0.1:9000/"}.URL("b", "k")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/k", u.String())

	u, err = Endpoint{Custom: "oss.internal/"}.URL("b", "k")
	require.NoError(t, err)
	assert.Equal(t, "https://oss.internal/k", u.String())
}

func TestEncodeQuery(t *testing.T) {
	assert.Equal(t, "uploads", encodeQuery([]queryParam{{key: "uploads", bare: true}}))
	assert.Equal(t, "partNumber=1&uploadId=a%2Fb%3D",
		encodeQuery([]queryParam{{key: "partNumber", value: "1"}, {key: "uploadId", value: "a/b="}}))
	assert.Empty(t, encodeQuery(nil))
}
