package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// File returns a content fingerprint for the file at path. xxhash is used
// rather than a cryptographic digest because asset files can run to hundreds
// of megabytes and the fingerprint only needs to detect replacement, not
// resist an adversary. The file size is folded in alongside the hash.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint file: %w", err)
	}
	defer f.Close()

	h := xxhash.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", fmt.Errorf("fingerprint file %s: %w", path, err)
	}

	sum := h.Sum(nil)
	return "xxh64:" + hex.EncodeToString(sum) + ":" + strconv.FormatInt(size, 10), nil
}
