// Package signer implements OSS V4 request signing (OSS4-HMAC-SHA256).
//
// Sign is a pure function: for identical inputs, including the timestamp, it
// always returns identical output. It never performs I/O and never retains
// credential material after returning.
package signer

import (
	"encoding/hex"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"

	osserrors "github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
)

// Mode selects where the signature is attached.
type Mode int

const (
	// ModeHeader attaches an Authorization header.
	ModeHeader Mode = iota

	// ModePresign attaches the signature as query parameters.
	ModePresign
)

// Context describes one request to sign.
type Context struct {
	// Method is the HTTP method, e.g. "PUT".
	Method string

	// Path is the raw, unencoded resource path.
	Path string

	// Query holds the request query parameters.
	Query url.Values

	// Headers holds the headers to sign. Names are case-insensitive.
	Headers http.Header

	// Host is signed as the "host" header when not empty.
	Host string

	// PayloadHash is the hex SHA-256 of the body or UnsignedPayload.
	// Presigned requests always use UnsignedPayload.
	PayloadHash string

	// Time is the signing timestamp.
	Time time.Time

	// Region is the OSS region, e.g. "cn-hangzhou".
	Region string

	// Mode selects header or query-string signing.
	Mode Mode

	// Expires is the presigned URL validity. Only used with ModePresign.
	Expires time.Duration
}

// Augmentation is what a signature adds to a request.
type Augmentation struct {
	// Headers to set on the request. Empty in presign mode.
	Headers http.Header

	// Query parameters to add to the request. Empty in header mode.
	Query url.Values

	// Signature is the hex encoded signature.
	Signature string

	// SignedHeaders is the ';' separated list of signed header names.
	SignedHeaders string

	// CanonicalRequest and StringToSign are exposed for debugging signature
	// mismatches. Neither contains secret material.
	CanonicalRequest string
	StringToSign     string
}

// Sign computes the OSS V4 signature for sc using creds.
func Sign(sc *Context, creds aws.Credentials) (*Augmentation, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}
	if sc.Region == "" {
		return nil, osserrors.NewError("sign", osserrors.ErrInvalidRegion).WithMessage("region is required")
	}
	st, err := NewSigningTime(sc.Time)
	if err != nil {
		return nil, err
	}

	switch sc.Mode {
	case ModePresign:
		return presign(sc, creds, st)
	default:
		return signHeaders(sc, creds, st)
	}
}

func signHeaders(sc *Context, creds aws.Credentials, st SigningTime) (*Augmentation, error) {
	payloadHash := sc.PayloadHash
	if payloadHash == "" {
		payloadHash = UnsignedPayload
	}

	added := http.Header{}
	added.Set(DateKey, st.TimeFormat())
	added.Set(ContentSHAKey, payloadHash)
	if creds.SessionToken != "" {
		added.Set(SecurityTokenKey, creds.SessionToken)
	}

	toSign := make(http.Header, len(sc.Headers)+len(added))
	for k, vs := range sc.Headers {
		if isAddedHeader(k) {
			continue
		}
		toSign[k] = vs
	}
	for k, vs := range added {
		toSign[k] = vs
	}

	canonicalHeaders, signedHeaders := CanonicalHeaders(toSign, sc.Host)
	canonicalRequest := CanonicalRequest(
		strings.ToUpper(sc.Method),
		CanonicalURI(sc.Path),
		CanonicalQuery(sc.Query),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	)

	scope := Scope(st, sc.Region)
	stringToSign := StringToSign(st, scope, canonicalRequest)
	signature := computeSignature(creds.SecretAccessKey, sc.Region, st, stringToSign)

	added.Set(AuthorizationHeader, buildAuthorization(creds.AccessKeyID, scope, signedHeaders, signature))

	return &Augmentation{
		Headers:          added,
		Query:            url.Values{},
		Signature:        signature,
		SignedHeaders:    signedHeaders,
		CanonicalRequest: canonicalRequest,
		StringToSign:     stringToSign,
	}, nil
}

func computeSignature(secret, region string, st SigningTime, stringToSign string) string {
	key := DeriveKey(secret, region, st)
	defer Wipe(key)
	return hex.EncodeToString(HMACSHA256(key, []byte(stringToSign)))
}

func buildAuthorization(accessKeyID, scope, signedHeaders, signature string) string {
	var b strings.Builder
	b.WriteString(Algorithm)
	b.WriteString(" Credential=")
	b.WriteString(accessKeyID)
	b.WriteByte('/')
	b.WriteString(scope)
	b.WriteString(", SignedHeaders=")
	b.WriteString(signedHeaders)
	b.WriteString(", Signature=")
	b.WriteString(signature)
	return b.String()
}

// isAddedHeader reports whether the signer owns the header. Caller supplied
// copies are replaced so a re-signed request never carries stale values.
func isAddedHeader(name string) bool {
	switch strings.ToLower(name) {
	case DateKey, ContentSHAKey, SecurityTokenKey, "authorization":
		return true
	}
	return false
}

func validateCredentials(creds aws.Credentials) error {
	if creds.AccessKeyID == "" {
		return osserrors.NewAuthError(osserrors.AuthInvalidCredentials, "access key id is empty")
	}
	if creds.SecretAccessKey == "" {
		return osserrors.NewAuthError(osserrors.AuthInvalidCredentials, "access key secret is empty")
	}
	if !printable(creds.AccessKeyID) {
		return osserrors.NewAuthError(osserrors.AuthInvalidCredentials, "access key id contains whitespace or control characters")
	}
	if !printable(creds.SecretAccessKey) {
		return osserrors.NewAuthError(osserrors.AuthInvalidCredentials, "access key secret contains whitespace or control characters")
	}
	return nil
}

func printable(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// SignHTTP signs req in place in header mode. The path, query, host and
// current headers of req are signed.
func SignHTTP(req *http.Request, creds aws.Credentials, region string, t time.Time, payloadHash string) error {
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}

	aug, err := Sign(&Context{
		Method:      req.Method,
		Path:        req.URL.Path,
		Query:       req.URL.Query(),
		Headers:     req.Header,
		Host:        host,
		PayloadHash: payloadHash,
		Time:        t,
		Region:      region,
		Mode:        ModeHeader,
	}, creds)
	if err != nil {
		return err
	}

	for k, vs := range aug.Headers {
		req.Header[k] = vs
	}
	return nil
}

// PresignURL returns base with the presign query parameters appended. base
// supplies the scheme, host and unencoded path; its existing query parameters
// are signed as well.
func PresignURL(base *url.URL, sc *Context, creds aws.Credentials) (string, error) {
	ctx := *sc
	ctx.Mode = ModePresign
	ctx.Path = base.Path
	ctx.Host = base.Host
	if ctx.Query == nil {
		ctx.Query = base.Query()
	}

	aug, err := Sign(&ctx, creds)
	if err != nil {
		return "", err
	}

	all := url.Values{}
	for k, vs := range ctx.Query {
		if aug.Query.Has(strings.ToLower(k)) {
			continue
		}
		all[k] = append(all[k], vs...)
	}
	for k, vs := range aug.Query {
		if k == SignatureKey {
			continue
		}
		all[k] = append(all[k], vs...)
	}

	var b strings.Builder
	b.WriteString(base.Scheme)
	b.WriteString("://")
	b.WriteString(base.Host)
	b.WriteString(CanonicalURI(base.Path))
	b.WriteByte('?')
	b.WriteString(CanonicalQuery(all))
	b.WriteByte('&')
	b.WriteString(SignatureKey)
	b.WriteByte('=')
	b.WriteString(aug.Signature)
	return b.String(), nil
}

func formatExpires(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10)
}
