package ossapi

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/signer"
)

// Endpoint resolves bucket and key to a request URL.
type Endpoint struct {
	// Region is the OSS region, e.g. "cn-hangzhou".
	Region string

	// Custom replaces the regional host. It may carry a scheme; without one
	// the scheme follows DisableSSL. The bucket is not prepended to a custom
	// host.
	Custom string

	// PathStyle puts the bucket in the path instead of the host.
	PathStyle bool

	// DisableSSL selects http instead of https.
	DisableSSL bool
}

// URL returns the URL for bucket and key. Path is the unencoded resource path
// and RawPath its signing encoding.
func (e Endpoint) URL(bucket, key string) (*url.URL, error) {
	scheme := "https"
	if e.DisableSSL {
		scheme = "http"
	}

	var host string
	switch {
	case e.Custom != "":
		if strings.Contains(e.Custom, "://") {
			u, err := url.Parse(e.Custom)
			if err != nil {
				return nil, errors.NewError("endpoint", fmt.Errorf("%w: %v", errors.ErrInvalidInput, err))
			}
			scheme, host = u.Scheme, u.Host
		} else {
			host = strings.TrimRight(e.Custom, "/")
		}
	case bucket != "" && !e.PathStyle:
		host = bucket + ".oss-" + e.Region + ".aliyuncs.com"
	default:
		host = "oss-" + e.Region + ".aliyuncs.com"
	}
	if host == "" {
		return nil, errors.NewError("endpoint", errors.ErrInvalidInput).WithMessage("empty endpoint host")
	}

	path := "/"
	if e.PathStyle && bucket != "" {
		path += bucket + "/"
	}
	path += key

	return &url.URL{
		Scheme:  scheme,
		Host:    host,
		Path:    path,
		RawPath: signer.EncodePath(path),
	}, nil
}

// queryParam is an ordered query parameter. A bare parameter has no '=' on
// the wire, as in "?uploads".
type queryParam struct {
	key   string
	value string
	bare  bool
}

func encodeQuery(params []queryParam) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(signer.EncodeQuery(p.key))
		if p.bare {
			continue
		}
		b.WriteByte('=')
		b.WriteString(signer.EncodeQuery(p.value))
	}
	return b.String()
}
