package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// KeyLen is the number of hex characters in a cache key. 128 bits keeps the
// accidental-collision risk negligible at this project scale while staying
// short enough for human-inspectable cache paths.
const KeyLen = 32

// listSeparator joins ordered multi-value inputs before hashing. Unit
// separator cannot occur in paths, keys, or narration text.
const listSeparator = "\x1f"

// Digest computes a deterministic cache key from named stage inputs. Keys are
// sorted before hashing so insertion order never changes the result. Two
// calls with identical inputs always produce identical keys.
func Digest(inputs map[string]string) string {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		_, _ = h.Write([]byte(name))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(inputs[name]))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:KeyLen]
}

// Text canonicalizes narration text for fingerprinting: Unicode NFC
// normalization plus whitespace collapse, so editor artifacts (trailing
// spaces, reflowed lines, alternate codepoint forms) do not invalidate
// synthesized audio.
func Text(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// List encodes an ordered sequence of values as a single input. Order is
// significant: swapping two elements changes the resulting digest.
func List(values []string) string {
	return strings.Join(values, listSeparator)
}

// Float formats a float input without trailing-zero ambiguity.
func Float(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Int formats an integer input.
func Int(v int) string {
	return strconv.Itoa(v)
}

// Bool formats a boolean input.
func Bool(v bool) string {
	return strconv.FormatBool(v)
}
