// Package textutil provides text processing utilities for normalization and
// content fingerprinting.
//
// The primary use cases are:
//   - Normalizing candidate text before hashing, fingerprinting, and policy checks
//   - Deriving the content-addressed identity hash used for exact deduplication
//   - Computing 64-bit SimHash signatures whose Hamming distance approximates
//     textual similarity for near-duplicate detection
//
// Normalization is idempotent: applying it twice yields the same result as
// applying it once. All fingerprint inputs are expected to be normalized first.
package textutil
