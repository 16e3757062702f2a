package checksum

import (
	"github.com/ckit-sh/ckit/pkg/types"
)

// Classify determines who owns a file given its current checksum, the
// checksum recorded in the manifest, and the recorded base checksum.
//
// A file with no manifest record is the user's. Otherwise it is compared
// against its baseline: the base checksum when one was recorded (the
// user kept local modifications at install time), the recorded checksum
// otherwise. A match means the kit still owns the file; a mismatch means
// the user has modified it.
func Classify(current, recorded, base string) types.Ownership {
	if recorded == "" {
		return types.OwnershipUser
	}

	baseline := recorded
	if base != "" {
		baseline = base
	}

	if current == baseline {
		return types.OwnershipKit
	}
	return types.OwnershipKitModified
}

// ClassifyFile classifies the file at path against a tracked record.
// The checksum is only computed here, never for untracked files.
func ClassifyFile(path string, record types.TrackedFile) (types.Ownership, error) {
	if record.Checksum == "" {
		return types.OwnershipUser, nil
	}

	current, err := CalculateFileChecksum(path)
	if err != nil {
		return "", err
	}

	return Classify(current, record.Checksum, record.BaseChecksum), nil
}
