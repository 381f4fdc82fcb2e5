// Package fingerprint computes perceptual image hashes used to detect
// near-duplicate photo submissions. It is pure and database-free.
package fingerprint

import (
	"fmt"
	"image"
	"io"
	"math/bits"
	"strconv"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"

	"festival-cleanup-backend/internal/models"
)

const (
	hexLength    = 16
	binaryLength = 64
)

// Fingerprint is a 64-bit perceptual average hash of an image.
type Fingerprint uint64

// Compute decodes an image and returns its perceptual hash. The result is
// deterministic for identical bytes, and Hamming-close for visually
// near-identical images (resizes, recompression).
func Compute(r io.Reader) (Fingerprint, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return ComputeImage(img)
}

// ComputeImage returns the perceptual hash of an already-decoded image.
func ComputeImage(img image.Image) (Fingerprint, error) {
	h, err := goimagehash.AverageHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to compute average hash: %w", err)
	}
	return Fingerprint(h.GetHash()), nil
}

// Parse accepts the canonical 16-character hex encoding or a raw 64-character
// binary string of 0/1 and returns the fingerprint. Malformed input yields a
// wrapped models.ErrInvalidFingerprint.
func Parse(s string) (Fingerprint, error) {
	switch len(s) {
	case hexLength:
		v, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not hex", models.ErrInvalidFingerprint, s)
		}
		return Fingerprint(v), nil
	case binaryLength:
		v, err := strconv.ParseUint(s, 2, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not binary", models.ErrInvalidFingerprint, s)
		}
		return Fingerprint(v), nil
	default:
		return 0, fmt.Errorf("%w: length %d", models.ErrInvalidFingerprint, len(s))
	}
}

// String returns the canonical 16-character lowercase hex encoding.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Binary returns the 64-character binary encoding.
func (f Fingerprint) Binary() string {
	return fmt.Sprintf("%064b", uint64(f))
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a) ^ uint64(b))
}
