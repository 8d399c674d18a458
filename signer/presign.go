package signer

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"

	osserrors "github.com/input-output-hk/catalyst-forge-libs/aliyun/oss/errors"
)

// presign computes a query-string signature. The payload is always unsigned
// and the security token, when present, travels as a query parameter.
func presign(sc *Context, creds aws.Credentials, st SigningTime) (*Augmentation, error) {
	if sc.Expires <= 0 || sc.Expires > MaxPresignExpiry {
		return nil, osserrors.NewError("presign", osserrors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("expiry must be between 1s and %s, got %s", MaxPresignExpiry, sc.Expires))
	}

	headers := make(http.Header, len(sc.Headers))
	for k, vs := range sc.Headers {
		if isAddedHeader(k) {
			continue
		}
		headers[k] = vs
	}
	canonicalHeaders, signedHeaders := CanonicalHeaders(headers, sc.Host)

	scope := Scope(st, sc.Region)

	added := url.Values{}
	added.Set(CredentialKey, creds.AccessKeyID+"/"+scope)
	added.Set(DateKey, st.TimeFormat())
	added.Set(ExpiresKey, formatExpires(sc.Expires))
	added.Set(SignatureVersionKey, Algorithm)
	added.Set(SignedHeadersKey, signedHeaders)
	if creds.SessionToken != "" {
		added.Set(SecurityTokenKey, creds.SessionToken)
	}

	query := make(url.Values, len(sc.Query)+len(added))
	for k, vs := range sc.Query {
		if strings.HasPrefix(strings.ToLower(k), "x-oss-") && added.Has(strings.ToLower(k)) {
			continue
		}
		query[k] = vs
	}
	for k, vs := range added {
		query[k] = vs
	}

	canonicalRequest := CanonicalRequest(
		strings.ToUpper(sc.Method),
		CanonicalURI(sc.Path),
		CanonicalQuery(query),
		canonicalHeaders,
		signedHeaders,
		UnsignedPayload,
	)
	stringToSign := StringToSign(st, scope, canonicalRequest)
	signature := computeSignature(creds.SecretAccessKey, sc.Region, st, stringToSign)

	added.Set(SignatureKey, signature)

	return &Augmentation{
		Headers:          http.Header{},
		Query:            added,
		Signature:        signature,
		SignedHeaders:    signedHeaders,
		CanonicalRequest: canonicalRequest,
		StringToSign:     stringToSign,
	}, nil
}
