// Package checksum computes file checksums and classifies file
// ownership from them. Every checksum ckit records or compares goes
// through this package so the format stays identical everywhere.
package checksum

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/ckit-sh/ckit/pkg/errors"
)

// CalculateFileChecksum calculates the SHA256 checksum of a file
func CalculateFileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrChecksum, "cannot read %s", path)
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", errors.Wrapf(err, errors.ErrChecksum, "cannot read %s", path)
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// CalculateChecksum calculates the SHA256 checksum of in-memory content.
// The result is identical to CalculateFileChecksum over a file with the
// same bytes.
func CalculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", hash[:])
}
