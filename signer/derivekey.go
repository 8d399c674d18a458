package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// DeriveKey derives the OSS V4 signing key:
//   - kDate = HMAC-SHA256("aliyun_v4" + secret, date)
//   - kRegion = HMAC-SHA256(kDate, region)
//   - kService = HMAC-SHA256(kRegion, "oss")
//   - kSigning = HMAC-SHA256(kService, "aliyun_v4_request")
//
// Intermediate keys are zeroed before returning. The caller owns the result
// and should pass it to Wipe once the signature is computed.
func DeriveKey(secret, region string, t SigningTime) []byte {
	seed := []byte(SecretPrefix + secret)
	defer Wipe(seed)

	kDate := HMACSHA256(seed, []byte(t.ShortTimeFormat()))
	defer Wipe(kDate)

	kRegion := HMACSHA256(kDate, []byte(region))
	defer Wipe(kRegion)

	kService := HMACSHA256(kRegion, []byte(ServiceName))
	defer Wipe(kService)

	return HMACSHA256(kService, []byte(ScopeTerminator))
}

// HMACSHA256 computes HMAC-SHA256 of data with the given key.
func HMACSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// HashPayload returns the hex encoded SHA-256 of body.
func HashPayload(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Wipe zeroes b.
func Wipe(b []byte) {
	clear(b)
}
