package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// MaximumSeedSize is the largest seed file whose contents are hashed.
// Seeds beyond this size get a path-sentinel checksum instead, which
// cannot prove byte-level sameness between two versions.
const MaximumSeedSize = 1 * 1024 * 1024

// Checksum algorithm names carried in FileHash.Name.
const (
	HashSHA256 = "sha256"
	HashPath   = "path"
	HashNone   = "none"
)

// FileHash is the content identity of a source file. Name records the
// algorithm; Checksum the hex digest, or the file path when Name is
// "path".
type FileHash struct {
	Name     string `json:"name" yaml:"name"`
	Checksum string `json:"checksum" yaml:"checksum"`
}

// FileHashFromContents hashes raw file contents.
func FileHashFromContents(contents []byte) FileHash {
	sum := sha256.Sum256(contents)
	return FileHash{Name: HashSHA256, Checksum: hex.EncodeToString(sum[:])}
}

// PathHash builds the sentinel checksum used for files too large to
// hash. Equality of two path hashes only proves the file did not move.
func PathHash(path string) FileHash {
	return FileHash{Name: HashPath, Checksum: path}
}

// EmptyHash is the checksum of a resource with no backing file.
func EmptyHash() FileHash {
	return FileHash{Name: HashNone, Checksum: ""}
}

// SeedHash hashes seed contents, falling back to the path sentinel
// when the file exceeds MaximumSeedSize.
func SeedHash(path string, contents []byte) FileHash {
	if len(contents) > MaximumSeedSize {
		return PathHash(path)
	}
	return FileHashFromContents(contents)
}

// IsPathHash reports whether this checksum is the path sentinel.
func (h FileHash) IsPathHash() bool {
	return h.Name == HashPath
}

// Equal compares algorithm and digest.
func (h FileHash) Equal(other FileHash) bool {
	return h.Name == other.Name && h.Checksum == other.Checksum
}
