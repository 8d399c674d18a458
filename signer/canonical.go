package signer

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// EncodePath percent-encodes a resource path, keeping RFC 3986 unreserved
// characters and the '/' separator.
func EncodePath(path string) string {
	return encode(path, true)
}

// EncodeQuery percent-encodes a query key or value, keeping only RFC 3986
// unreserved characters.
func EncodeQuery(s string) string {
	return encode(s, false)
}

func encode(s string, keepSlash bool) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i], keepSlash) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c, keepSlash) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte, keepSlash bool) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	case c == '/':
		return keepSlash
	}
	return false
}

// CanonicalURI returns the encoded path, or "/" for an empty path.
func CanonicalURI(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return EncodePath(path)
}

// CanonicalQuery encodes every key and value, sorts by key then value and
// joins them as k=v pairs separated by '&'.
func CanonicalQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}

	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(query))
	for k, vs := range query {
		ek := EncodeQuery(k)
		if len(vs) == 0 {
			pairs = append(pairs, pair{k: ek})
			continue
		}
		for _, v := range vs {
			pairs = append(pairs, pair{k: ek, v: EncodeQuery(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.k)
		b.WriteByte('=')
		b.WriteString(p.v)
	}
	return b.String()
}

// CanonicalHeaders returns the canonical header block and the signed header
// list. Names are lower-cased and trimmed; header names that differ only in
// case are merged, their values joined by ',' in key order. host is signed as
// "host"; when it is empty a Host entry of headers is used instead.
func CanonicalHeaders(headers http.Header, host string) (canonical, signed string) {
	merged := make(map[string][]string, len(headers)+1)

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := strings.ToLower(strings.TrimSpace(k))
		if name == HostHeader {
			if host == "" && len(headers[k]) > 0 {
				host = headers[k][0]
			}
			continue
		}
		if name == "" {
			continue
		}
		for _, v := range headers[k] {
			merged[name] = append(merged[name], strings.TrimSpace(v))
		}
	}
	if host != "" {
		merged[HostHeader] = []string{strings.TrimSpace(host)}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(merged[name], ","))
		b.WriteByte('\n')
	}

	return b.String(), strings.Join(names, ";")
}

// CanonicalRequest assembles the canonical request string.
func CanonicalRequest(method, uri, query, headers, signedHeaders, payloadHash string) string {
	return strings.Join([]string{
		method,
		uri,
		query,
		headers,
		signedHeaders,
		payloadHash,
	}, "\n")
}

// StringToSign builds the string to sign from the timestamp, scope and
// hashed canonical request.
func StringToSign(t SigningTime, scope, canonicalRequest string) string {
	return strings.Join([]string{
		Algorithm,
		t.TimeFormat(),
		scope,
		HashPayload([]byte(canonicalRequest)),
	}, "\n")
}

// Scope returns date/region/oss/aliyun_v4_request.
func Scope(t SigningTime, region string) string {
	return strings.Join([]string{t.ShortTimeFormat(), region, ServiceName, ScopeTerminator}, "/")
}
