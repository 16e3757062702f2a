package diff

import (
	"bytes"
	"os"
	"unicode/utf8"

	"github.com/ckit-sh/ckit/pkg/errors"
)

const (
	// DefaultMaxFileSize caps how much file content is buffered for
	// diffing. Kit files are small text documents; anything near this
	// limit is not reviewable anyway.
	DefaultMaxFileSize = 10 * 1024 * 1024

	// binarySampleSize is how much of the content the binary heuristic
	// inspects.
	binarySampleSize = 8 * 1024

	// binaryThreshold is the non-printable fraction above which content
	// is treated as binary.
	binaryThreshold = 0.10
)

// IsBinaryFile reports whether content looks binary. It samples at most
// the first 8 KB: any null byte means binary immediately; otherwise the
// content is binary when more than 10% of the sample is non-printable
// (tab, LF and CR do not count). Empty content is never binary.
func IsBinaryFile(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	sample := content
	if len(sample) > binarySampleSize {
		sample = sample[:binarySampleSize]
	}

	nonPrintable := 0
	for _, b := range sample {
		if b == 0 {
			return true
		}
		if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			nonPrintable++
		} else if b == 127 {
			nonPrintable++
		}
	}

	return float64(nonPrintable) > binaryThreshold*float64(len(sample))
}

// LoadFileContent reads a text file for diffing, enforcing the safety
// rules that keep the diff engine away from content it cannot handle.
// The lstat gives symlink status and size in one call, so there is no
// window between the symlink check and the read. maxSize <= 0 uses
// DefaultMaxFileSize.
//
// Rejected: symlinks, files over maxSize, and content that turns out to
// contain null bytes or invalid UTF-8 after reading (the size-bounded
// heuristic can miss what the full read reveals).
func LoadFileContent(path string, maxSize int64) (string, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(err, errors.ErrFileNotFound, "no such file: %s", path)
		}
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return "", errors.Newf(errors.ErrSymlinkRejected,
			"refusing to read symlink %s", path).
			WithDetail("path", path)
	}

	if info.Size() > maxSize {
		return "", errors.Newf(errors.ErrFileTooLarge,
			"%s is %d bytes, limit is %d", path, info.Size(), maxSize).
			WithDetail("path", path).
			WithDetail("size", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path)
	}

	if bytes.IndexByte(data, 0) >= 0 {
		return "", errors.Newf(errors.ErrBinaryFile,
			"%s contains null bytes", path).
			WithDetail("path", path)
	}

	if !utf8.Valid(data) {
		return "", errors.Newf(errors.ErrBinaryFile,
			"%s is not valid UTF-8", path).
			WithDetail("path", path)
	}

	return string(data), nil
}
