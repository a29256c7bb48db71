// Package fingerprint computes the content identity of image files.
//
// The digest is MD5 because the image board indexes posts by the MD5 of the
// original upload, so the same value drives both local duplicate detection
// and the remote content-hash lookup.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Hash is a lowercase hex MD5 digest.
type Hash string

func (h Hash) String() string { return string(h) }

// Bytes fingerprints an in-memory buffer.
func Bytes(data []byte) Hash {
	sum := md5.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// Reader fingerprints everything read from r.
func Reader(r io.Reader) (Hash, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return Hash(hex.EncodeToString(h.Sum(nil))), nil
}

// File fingerprints the file at path.
func File(path string) (Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	hash, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return hash, nil
}
