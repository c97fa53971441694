// Package checksum computes content checksums for files. The default mode
// produces digests byte-identical to md5sum output. MP3 mode computes a
// tag-agnostic digest that excludes ID3v1 and ID3v2 metadata regions so
// re-tagging an audio file does not register as a content change.
package checksum

import (
	"crypto/md5" //nolint:gosec // md5sum interoperability, not security
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// chunkSize is the read size for streaming digests.
const chunkSize = 1 << 20

// ErrUnreadable indicates a file that could not be opened or read. Callers
// log it and exclude the file from the manifest; it never aborts a run.
var ErrUnreadable = errors.New("file unreadable")

// ForFile returns the checksum of the file at path. When mp3Mode is true
// and the filename ends in ".mp3" the tag-skipping digest is used;
// otherwise the digest matches md5sum.
func ForFile(path string, mp3Mode bool) (string, error) {
	if mp3Mode && strings.HasSuffix(path, ".mp3") {
		return MP3File(path)
	}
	return File(path)
}

// File computes the md5sum-compatible digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// MP3File computes the digest of the file at path with any ID3v1 and ID3v2
// tag regions excluded. Files without tags hash identically to File.
func MP3File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	start, finish, err := audioRange(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	h := md5.New() //nolint:gosec
	if _, err := io.CopyN(h, f, finish-start); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
