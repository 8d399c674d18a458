// Package credentials supplies OSS access keys as aws.CredentialsProvider
// values.
//
// Providers return immutable aws.Credentials snapshots. Static keys, the
// ALIBABA_CLOUD_* environment variables and ordered chains of providers are
// supported; NewCachedProvider adds expiry-aware caching for providers that
// hand out temporary STS credentials.
package credentials
