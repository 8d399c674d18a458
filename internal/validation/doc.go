// Package validation provides centralized input validation logic.
// Bucket names, object keys, regions and per-object headers are checked
// before any request is signed so malformed input never reaches the network.
package validation
