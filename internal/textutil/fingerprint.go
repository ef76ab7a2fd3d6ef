package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

const (
	// DefaultHashLength is the hex length of the content identity hash.
	DefaultHashLength = 32
	minHashLength     = 16
	maxHashLength     = 64

	// DefaultBucketPrefix is the fingerprint prefix length used to group
	// near-duplicate candidates.
	DefaultBucketPrefix = 4

	simHashBits = 64
)

// ContentHash derives the content-addressed identity of normalized text: the
// lowercase hex SHA-256 digest truncated to length characters, clamped to
// [16, 64].
func ContentHash(normalized string, length int) string {
	if length < minHashLength {
		length = minHashLength
	}
	if length > maxHashLength {
		length = maxHashLength
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:length]
}

// SimHash computes a 64-bit locality-sensitive signature of normalized text,
// encoded as 16 lowercase hex characters. Texts sharing many tokens produce
// signatures with a small Hamming distance.
func SimHash(normalized string) string {
	var votes [simHashBits]int
	for _, token := range shingles(normalized) {
		digest := sha256.Sum256([]byte(token))
		for i := 0; i < simHashBits; i++ {
			if digest[i/8]>>(uint(i)%8)&1 == 1 {
				votes[i]++
			} else {
				votes[i]--
			}
		}
	}
	var value uint64
	for i, vote := range votes {
		// Ties resolve toward a set bit.
		if vote >= 0 {
			value |= 1 << uint(i)
		}
	}
	return fmt.Sprintf("%016x", value)
}

// shingles tokenizes normalized text: whitespace-separated words when the
// text contains spaces, otherwise overlapping 3-rune windows (including the
// shorter tail windows) for scripts without word boundaries.
func shingles(normalized string) []string {
	if normalized == "" {
		return nil
	}
	if strings.ContainsRune(normalized, ' ') {
		return strings.Fields(normalized)
	}
	runes := []rune(normalized)
	tokens := make([]string, 0, len(runes))
	for i := range runes {
		end := i + 3
		if end > len(runes) {
			end = len(runes)
		}
		tokens = append(tokens, string(runes[i:end]))
	}
	return tokens
}

// HammingDistance counts the differing bits between two SimHash hex values.
func HammingDistance(hexA, hexB string) (int, error) {
	a, err := strconv.ParseUint(hexA, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse fingerprint %q: %w", hexA, err)
	}
	b, err := strconv.ParseUint(hexB, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse fingerprint %q: %w", hexB, err)
	}
	return bits.OnesCount64(a ^ b), nil
}

// BucketKey returns the fingerprint prefix used as the near-duplicate
// candidate bucket. Prefix lengths below 1 are raised to 1.
func BucketKey(fingerprint string, prefixLen int) string {
	if prefixLen < 1 {
		prefixLen = 1
	}
	if prefixLen > len(fingerprint) {
		return fingerprint
	}
	return fingerprint[:prefixLen]
}
