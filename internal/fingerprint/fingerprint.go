package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// blockSize bounds the amount of file data held in memory while hashing.
const blockSize = 64 * 1024

// Reader computes the SHA-256 fingerprint of everything readable from r,
// consuming it in fixed-size blocks. The result is lowercase hex and safe to
// use as a filesystem path segment.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, blockSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read for fingerprint: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes fingerprints an in-memory payload.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// File fingerprints the file at path without loading it whole.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for fingerprint: %w", err)
	}
	defer f.Close()
	return Reader(f)
}
